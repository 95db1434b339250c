// Package services – Prometheus instrumentation
//
// Counters for the outcomes that matter operationally: delivered videos,
// classified fetch failures, and cooldown rejections. Label cardinality is
// fixed (the failure reason set is closed), so these are safe to scrape
// forever.
package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// downloadsTotal counts successfully delivered videos.
	downloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tikbot_downloads_total",
			Help: "Total number of videos successfully delivered.",
		},
	)

	// fetchFailures counts fetch pipeline failures by classified reason.
	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikbot_fetch_failures_total",
			Help: "Total number of media fetch failures by reason.",
		},
		[]string{"reason"},
	)

	// cooldownRejections counts events rejected by the per-chat cooldown.
	cooldownRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tikbot_cooldown_rejections_total",
			Help: "Total number of events rejected by the cooldown gate.",
		},
	)
)

func init() {
	prometheus.MustRegister(downloadsTotal, fetchFailures, cooldownRejections)
}

// failureReason returns the metrics label for a pipeline error.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrVideoNotFound):
		return "not_found"
	case errors.Is(err, ErrNoPlayableURL):
		return "no_playable_url"
	case errors.Is(err, ErrFetchTimeout):
		return "timeout"
	case errors.Is(err, ErrNetworkUnreachable):
		return "network"
	default:
		return "unknown"
	}
}
