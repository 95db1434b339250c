// Command tikbot runs the Telegram video-downloader bot: a long-poll update
// loop dispatching one goroutine per event, plus an optional ops HTTP
// listener for health, metrics, and status.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/alritech/tikbot/internal/config"
	httpapi "github.com/alritech/tikbot/internal/http"
	"github.com/alritech/tikbot/internal/observability"
	"github.com/alritech/tikbot/internal/repo"
	"github.com/alritech/tikbot/internal/services"
	"github.com/alritech/tikbot/internal/stats"
	"github.com/alritech/tikbot/internal/sysutil"
	"github.com/alritech/tikbot/internal/telegram"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	var db *gorm.DB
	if cfg.DBPath != "" {
		db, err = repo.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening download history failed")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrating download history failed")
		}
	} else {
		log.Info().Msg("download history disabled (DB_PATH empty)")
	}

	counter := stats.Load(cfg.StatsPath)
	log.Info().Int64("total", counter.Total()).Str("path", counter.Path()).Msg("usage counter loaded")

	client := telegram.NewClient(&http.Client{Timeout: cfg.PollTimeout + 10*time.Second}, cfg.TelegramAPI, cfg.BotToken)

	var history services.DownloadRecorder
	if db != nil {
		history = repo.Downloads{DB: db}
	}
	ctl := services.NewController(
		client,
		services.NewRateLimiter(cfg.Cooldown),
		services.NewStateStore(),
		services.NewLinkResolver(cfg.FetchTimeout),
		services.NewMediaFetchPipeline(cfg.TikwmAPI, cfg.FetchTimeout),
		counter,
		history,
		cfg.ChannelURL,
	)

	if cfg.OpsPort != "" {
		go serveOps(cfg, db, counter)
	}

	me := waitForBot(ctx, client)
	if me == nil {
		return // interrupted before Telegram answered
	}
	log.Info().Str("username", me.Username).Int64("id", me.ID).Msg("bot is running, polling for updates")

	poll(ctx, client, ctl, cfg.PollTimeout)
	log.Info().Msg("shutting down")
}

// serveOps runs the ops HTTP listener. Failures here are fatal: a configured
// ops port that cannot bind means the deployment is misconfigured.
func serveOps(cfg config.Config, db *gorm.DB, counter *stats.Counter) {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:      db,
		Counter: counter,
		Version: version,
		Started: time.Now(),
	})
	addr := ":" + cfg.OpsPort
	log.Info().Str("addr", addr).Msg("ops listener starting")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("ops listener failed")
	}
}

// waitForBot retries getMe until Telegram answers or ctx is cancelled.
func waitForBot(ctx context.Context, client *telegram.Client) *telegram.User {
	for {
		me, err := client.GetMe(ctx)
		if err == nil {
			return me
		}
		log.Warn().Err(err).Msg("getMe failed, retrying")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(3 * time.Second):
		}
	}
}

// poll is the long-poll loop. Each update is handled on its own goroutine so
// a slow fetch in one chat never delays the next poll.
func poll(ctx context.Context, client *telegram.Client, ctl *services.Controller, timeout time.Duration) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, next, err := client.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !telegram.IsPollTimeout(err) {
				log.Warn().Err(err).Msg("getUpdates failed")
				time.Sleep(time.Second)
			}
			continue
		}
		offset = next

		for _, u := range updates {
			dispatch(ctx, ctl, u)
		}
	}
}

// dispatch converts one update into a controller event and hands it off.
// Messages from other bots and update kinds the bot does not consume are
// dropped here.
func dispatch(ctx context.Context, ctl *services.Controller, u telegram.Update) {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		m := u.Message
		if m.From != nil && m.From.IsBot {
			return
		}
		ev := services.MessageEvent{
			ChatID: m.Chat.ID,
			Sender: senderName(m.From),
			Text:   m.Text,
		}
		go ctl.HandleMessage(ctx, ev)

	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		q := u.CallbackQuery
		ev := services.CallbackEvent{
			ChatID:     q.Message.Chat.ID,
			Sender:     senderName(q.From),
			MessageID:  q.Message.MessageID,
			CallbackID: q.ID,
			Data:       q.Data,
		}
		go ctl.HandleCallback(ctx, ev)
	}
}

// senderName returns a display name for logs and history rows.
func senderName(u *telegram.User) string {
	if u == nil {
		return ""
	}
	return sysutil.FirstNonEmpty(u.Username, u.FirstName, "unknown")
}
