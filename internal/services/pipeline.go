// Package services – MediaFetchPipeline
//
// This file implements the multi-stage remote lookup against the tikwm.com
// API: one GET with the resolved URL, a hard timeout, layered failure
// classification, and the progress narration that paces user-visible edits
// around the network call. Narration is an ordered list of (delay, text)
// descriptors; each step is cosmetic and skip-safe — a failed edit never
// blocks the next step or the fetch itself.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/alritech/tikbot/internal/domain"
)

// ProgressFunc receives each narration step's text. Implementations perform
// the placeholder-message edit and are expected to swallow edit failures.
type ProgressFunc func(text string)

// narrationStep is one paced user-visible update.
type narrationStep struct {
	delay time.Duration
	text  string
}

// Pacing is purely for perceived progress, not retry or backoff.
var (
	preFetchSteps  = []narrationStep{{1500 * time.Millisecond, msgFetching}}
	postFetchSteps = []narrationStep{{1500 * time.Millisecond, msgUploading}}
)

// tikwmResponse mirrors the subset of the tikwm.com payload the bot reads.
// A missing data object means the video does not exist.
type tikwmResponse struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	Data *tikwmData `json:"data"`
}

type tikwmData struct {
	Author    *tikwmAuthor `json:"author"`
	Music     *tikwmMusic  `json:"music"`
	PlayCount int64        `json:"play_count"`
	DiggCount int64        `json:"digg_count"`
	ShareURL  string       `json:"share_url"`
	HDPlay    string       `json:"hdplay"`
}

type tikwmAuthor struct {
	UniqueID string `json:"unique_id"`
}

type tikwmMusic struct {
	Title string `json:"title"`
}

// MediaFetchPipeline resolves a TikTok link to playable video metadata via
// the remote API. Safe for concurrent use; one instance serves all chats.
type MediaFetchPipeline struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer

	// sleep is a seam so tests do not pay the narration pacing.
	sleep func(time.Duration)
}

// NewMediaFetchPipeline constructs a pipeline against baseURL (e.g.
// "https://www.tikwm.com") with the given hard request timeout.
func NewMediaFetchPipeline(baseURL string, timeout time.Duration) *MediaFetchPipeline {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &MediaFetchPipeline{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  otel.Tracer("tikbot/pipeline"),
		sleep:   time.Sleep,
	}
}

// Fetch performs the remote lookup for resolvedURL, narrating progress
// through progress. It returns the video metadata, or one of the sentinel
// errors (ErrVideoNotFound, ErrNoPlayableURL, ErrFetchTimeout,
// ErrNetworkUnreachable, ErrRemoteUnknown) wrapped with raw detail.
//
// Errors are never retried; the request terminates on first failure and the
// caller maps the sentinel to user-facing wording.
func (p *MediaFetchPipeline) Fetch(ctx context.Context, resolvedURL string, progress ProgressFunc) (*domain.VideoMetadata, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fetch")
	defer span.End()

	if progress == nil {
		progress = func(string) {}
	}

	p.narrate(preFetchSteps, progress)

	meta, err := p.request(ctx, resolvedURL)
	if err != nil {
		fetchFailures.WithLabelValues(failureReason(err)).Inc()
		span.RecordError(err)
		return nil, err
	}

	p.narrate(postFetchSteps, progress)
	return meta, nil
}

// narrate walks the step list: pause, then emit. Steps never fail; the
// ProgressFunc owns swallowing edit errors.
func (p *MediaFetchPipeline) narrate(steps []narrationStep, progress ProgressFunc) {
	for _, st := range steps {
		p.sleep(st.delay)
		progress(st.text)
	}
}

// request issues the API call and classifies every failure mode.
func (p *MediaFetchPipeline) request(ctx context.Context, resolvedURL string) (*domain.VideoMetadata, error) {
	apiURL := fmt.Sprintf("%s/api/?url=%s&hd=1", p.baseURL, url.QueryEscape(resolvedURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnknown, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRemoteUnknown, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", ErrRemoteUnknown, resp.StatusCode)
	}

	var out tikwmResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %v", ErrRemoteUnknown, err)
	}
	if out.Data == nil {
		return nil, ErrVideoNotFound
	}

	meta := &domain.VideoMetadata{
		PlayCount: out.Data.PlayCount,
		LikeCount: out.Data.DiggCount,
		ShareURL:  out.Data.ShareURL,
		PlayURL:   strings.TrimSpace(out.Data.HDPlay),
	}
	if out.Data.Author != nil {
		meta.AuthorHandle = out.Data.Author.UniqueID
	}
	if out.Data.Music != nil {
		meta.MusicTitle = out.Data.Music.Title
	}
	if meta.PlayURL == "" {
		return nil, ErrNoPlayableURL
	}
	return meta, nil
}

// classifyTransportError maps a client.Do failure: deadline or net timeout
// means the remote was slow (ErrFetchTimeout); everything else means no
// response arrived at all (ErrNetworkUnreachable).
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
}
