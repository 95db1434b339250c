// Package services implements the bot's business logic: the per-chat
// cooldown limiter, the conversation state store, link validation and
// redirect resolution, the media fetch pipeline, and the controller that
// wires inbound Telegram events to all of the above.
//
// This file centralizes service-level error values. Each fetch failure maps
// to a distinct user-facing message in the controller; the sentinels here
// are what the pipeline returns and what callers check with errors.Is.
package services

import "errors"

// Fetch pipeline errors.
var (
	// ErrInvalidLink is returned when a submitted link fails validation and
	// must never reach the pipeline.
	ErrInvalidLink = errors.New("link is not a valid tiktok url")

	// ErrVideoNotFound indicates the remote API answered without a data
	// payload: the video is gone or was never there.
	ErrVideoNotFound = errors.New("video not found")

	// ErrNoPlayableURL indicates metadata was returned but the HD play URL
	// is empty or absent.
	ErrNoPlayableURL = errors.New("no playable video url")

	// ErrFetchTimeout indicates the remote API did not answer within the
	// configured deadline.
	ErrFetchTimeout = errors.New("media api timed out")

	// ErrNetworkUnreachable indicates the request failed without any
	// response at all (DNS, refused connection, broken transport).
	ErrNetworkUnreachable = errors.New("media api unreachable")

	// ErrRemoteUnknown is the catch-all for every other remote failure
	// (unexpected status, malformed body).
	ErrRemoteUnknown = errors.New("media api failed")
)
