// Package services – Controller
//
// This file implements the conversation state machine. Inbound events
// (messages and menu selections) are dispatched here, one goroutine per
// event; the controller gates them through the cooldown limiter, consults
// the state store, and drives the fetch pipeline and delivery adapter.
//
// Every handler contains its own panics so one failing conversation never
// disrupts others. Cosmetic delivery failures (progress edits, keyboard
// clearing, callback acks) are logged and swallowed; that suppression is
// deliberate and visible at each call site.
package services

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alritech/tikbot/internal/domain"
)

// MessageEvent is an inbound text message.
type MessageEvent struct {
	ChatID int64
	Sender string
	Text   string
}

// CallbackEvent is an inbound inline-menu selection.
type CallbackEvent struct {
	ChatID     int64
	Sender     string
	MessageID  int64 // message carrying the keyboard that was tapped
	CallbackID string
	Data       string
}

// Fetcher is the pipeline contract the controller depends on.
type Fetcher interface {
	Fetch(ctx context.Context, resolvedURL string, progress ProgressFunc) (*domain.VideoMetadata, error)
}

// Resolver canonicalizes a submitted link. Implementations must degrade to
// returning the input unchanged rather than failing.
type Resolver interface {
	Resolve(ctx context.Context, raw string) string
}

// UsageCounter is the durable delivered-video counter.
type UsageCounter interface {
	// Increment bumps the total and flushes it synchronously, returning the
	// new value.
	Increment() (int64, error)
	Total() int64
}

// DownloadRecorder persists best-effort download history. May be absent.
type DownloadRecorder interface {
	RecordDownload(ctx context.Context, d *domain.Download) error
}

// Controller owns the conversation lifecycle: the cooldown and state maps
// are shared across all concurrently processing events and passed in here
// once, not global.
type Controller struct {
	delivery Delivery
	limiter  *RateLimiter
	states   *StateStore
	resolver Resolver
	fetcher  Fetcher
	counter  UsageCounter
	history  DownloadRecorder // nil disables history recording

	channelURL string

	// seams for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewController wires the bot's collaborators together. history may be nil.
// channelURL fills the external-link menu button.
func NewController(d Delivery, limiter *RateLimiter, states *StateStore, resolver Resolver, fetcher Fetcher, counter UsageCounter, history DownloadRecorder, channelURL string) *Controller {
	return &Controller{
		delivery:   d,
		limiter:    limiter,
		states:     states,
		resolver:   resolver,
		fetcher:    fetcher,
		counter:    counter,
		history:    history,
		channelURL: channelURL,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// HandleMessage processes one inbound text message to completion. It is
// safe to call concurrently for different chats.
func (c *Controller) HandleMessage(ctx context.Context, ev MessageEvent) {
	lg := log.With().
		Str("event_id", uuid.NewString()).
		Int64("chat_id", ev.ChatID).
		Str("sender", ev.Sender).
		Logger()
	defer containPanic(&lg)

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	lg.Info().Str("text", text).Msg("incoming message")

	// Cooldown gate runs before anything else; admission consumes the token.
	admitted, remaining := c.limiter.TryAdmit(ev.ChatID, c.now())
	if !admitted {
		cooldownRejections.Inc()
		if c.states.Get(ev.ChatID) == domain.ModeAwaitingMenuChoice {
			// Mid-onboarding chatter is dropped without a notice.
			lg.Debug().Dur("remaining", remaining).Msg("cooldown active, dropped")
			return
		}
		lg.Info().Dur("remaining", remaining).Msg("cooldown active")
		c.send(ctx, &lg, ev.ChatID, pick(cooldownMessages))
		return
	}

	if text == "/start" {
		lg.Info().Msg("command /start")
		c.showMainMenu(ctx, &lg, ev.ChatID)
		return
	}

	if c.states.Get(ev.ChatID) == domain.ModeAwaitingLink {
		c.handleLink(ctx, &lg, ev, text)
		return
	}

	c.send(ctx, &lg, ev.ChatID, msgGuidance)
}

// HandleCallback processes one inline-menu selection to completion.
//
// The originating message's keyboard is cleared before acting on the
// selection, whichever option was chosen, so a double-tap cannot activate
// twice. Menu events are not cooldown-gated: they are produced by buttons
// the bot itself offered.
func (c *Controller) HandleCallback(ctx context.Context, ev CallbackEvent) {
	lg := log.With().
		Str("event_id", uuid.NewString()).
		Int64("chat_id", ev.ChatID).
		Str("sender", ev.Sender).
		Str("selection", ev.Data).
		Logger()
	defer containPanic(&lg)

	lg.Info().Msg("menu selection")

	if err := c.delivery.ClearInlineKeyboard(ctx, ev.ChatID, ev.MessageID); err != nil {
		lg.Warn().Err(err).Msg("clearing inline keyboard failed")
	}

	switch ev.Data {
	case callbackDownloader:
		c.states.Set(ev.ChatID, domain.ModeAwaitingLink)
		lg.Info().Str("mode", domain.ModeAwaitingLink.String()).Msg("mode change")
		c.send(ctx, &lg, ev.ChatID, msgLinkPrompt)
	case callbackShowStats:
		c.states.Clear(ev.ChatID)
		total := c.counter.Total()
		lg.Info().Int64("total", total).Msg("stats shown")
		c.send(ctx, &lg, ev.ChatID, statsMessage(total))
	case callbackStartMenu:
		c.showMainMenu(ctx, &lg, ev.ChatID)
	default:
		lg.Warn().Msg("unknown menu selection")
	}

	if err := c.delivery.AnswerCallbackQuery(ctx, ev.CallbackID); err != nil {
		lg.Warn().Err(err).Msg("answering callback failed")
	}
}

// showMainMenu runs the onboarding sequence and presents the 3-option menu.
// Any state transitions to ModeAwaitingMenuChoice.
func (c *Controller) showMainMenu(ctx context.Context, lg *zerolog.Logger, chatID int64) {
	c.states.Set(chatID, domain.ModeAwaitingMenuChoice)

	c.send(ctx, lg, chatID, msgWelcome1)
	c.sleep(400 * time.Millisecond)
	c.send(ctx, lg, chatID, msgWelcome2)
	c.sleep(400 * time.Millisecond)
	c.send(ctx, lg, chatID, msgWelcome3)
	c.sleep(600 * time.Millisecond)

	rows := [][]domain.MenuButton{
		{{Label: labelDownloader, Callback: callbackDownloader}},
		{{Label: labelStats, Callback: callbackShowStats}},
		{{Label: labelChannel, URL: c.channelURL}},
	}
	if _, err := c.delivery.SendTextWithKeyboard(ctx, chatID, msgMenuPrompt, rows); err != nil {
		lg.Error().Err(err).Msg("sending menu failed")
	}
}

// handleLink validates, resolves, and fetches a submitted link while the
// chat is in ModeAwaitingLink. The chat stays in ModeAwaitingLink whatever
// the outcome.
func (c *Controller) handleLink(ctx context.Context, lg *zerolog.Logger, ev MessageEvent, link string) {
	if !IsValidLink(link) {
		lg.Info().Msg("invalid link rejected")
		c.send(ctx, lg, ev.ChatID, msgInvalidLink)
		return
	}

	lg.Info().Msg("processing link")
	if err := c.delivery.SendChatAction(ctx, ev.ChatID, "typing"); err != nil {
		lg.Warn().Err(err).Msg("chat action failed")
	}

	placeholderID, err := c.delivery.SendText(ctx, ev.ChatID, msgCheckingLink)
	if err != nil {
		lg.Error().Err(err).Msg("sending placeholder failed")
		return
	}

	resolved := c.resolver.Resolve(ctx, link)

	progress := func(text string) {
		if err := c.delivery.EditText(ctx, ev.ChatID, placeholderID, text); err != nil {
			lg.Warn().Err(err).Msg("progress edit failed")
		}
	}

	meta, err := c.fetcher.Fetch(ctx, resolved, progress)
	if err != nil {
		lg.Error().Err(err).Str("url", resolved).Msg("fetch failed")
		if editErr := c.delivery.EditText(ctx, ev.ChatID, placeholderID, failureMessage(err)); editErr != nil {
			lg.Warn().Err(editErr).Msg("failure edit failed")
		}
		return
	}

	if err := c.delivery.EditText(ctx, ev.ChatID, placeholderID, renderMetadata(meta)); err != nil {
		lg.Warn().Err(err).Msg("metadata edit failed")
	}
	c.sleep(600 * time.Millisecond)

	if err := c.delivery.SendChatAction(ctx, ev.ChatID, "upload_video"); err != nil {
		lg.Warn().Err(err).Msg("chat action failed")
	}
	if err := c.delivery.SendVideo(ctx, ev.ChatID, meta.PlayURL, videoCaption(meta)); err != nil {
		lg.Error().Err(err).Msg("sending video failed")
		if editErr := c.delivery.EditText(ctx, ev.ChatID, placeholderID, pick(generalErrorMessages)); editErr != nil {
			lg.Warn().Err(editErr).Msg("failure edit failed")
		}
		return
	}

	total, err := c.counter.Increment()
	if err != nil {
		// Delivery already happened; under-counting beats over-counting.
		lg.Error().Err(err).Msg("flushing usage counter failed")
	}
	downloadsTotal.Inc()
	lg.Info().Int64("total", total).Str("author", meta.AuthorHandle).Msg("video delivered")

	if c.history != nil {
		d := &domain.Download{
			ChatID:       ev.ChatID,
			Sender:       ev.Sender,
			AuthorHandle: meta.AuthorHandle,
			ShareURL:     meta.ShareURL,
			ResolvedURL:  resolved,
		}
		if err := c.history.RecordDownload(ctx, d); err != nil {
			lg.Warn().Err(err).Msg("recording download history failed")
		}
	}

	rows := [][]domain.MenuButton{
		{{Label: labelAgain, Callback: callbackDownloader}},
		{{Label: labelMainMenu, Callback: callbackStartMenu}},
	}
	if _, err := c.delivery.SendTextWithKeyboard(ctx, ev.ChatID, pick(successMessages), rows); err != nil {
		lg.Error().Err(err).Msg("sending confirmation failed")
	}
}

// send delivers a plain text message, logging failures without escalating.
func (c *Controller) send(ctx context.Context, lg *zerolog.Logger, chatID int64, text string) {
	if _, err := c.delivery.SendText(ctx, chatID, text); err != nil {
		lg.Error().Err(err).Msg("sending message failed")
	}
}

// containPanic keeps a single event's panic from taking the process down.
func containPanic(lg *zerolog.Logger) {
	if r := recover(); r != nil {
		lg.Error().
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("event handler panic recovered")
	}
}
