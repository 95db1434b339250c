// Package services – LinkResolver
//
// This file validates submitted TikTok links and resolves share-link
// redirects to their canonical destination. Validation is strict (https
// scheme, known tiktok.com subdomain, non-empty path) and a link that fails
// it is never forwarded to the fetch pipeline. Resolution is best-effort: a
// HEAD request that follows up to five redirects, falling back to the
// original input on any transport failure.
package services

import (
	"context"
	"net/http"
	"regexp"
	"time"
)

// tiktokLinkRE accepts https links on the www, vm, or vt tiktok.com
// subdomains with a non-empty path.
var tiktokLinkRE = regexp.MustCompile(`^https://(www|vm|vt)\.tiktok\.com/.+`)

// IsValidLink reports whether raw is an acceptable TikTok link.
func IsValidLink(raw string) bool {
	return tiktokLinkRE.MatchString(raw)
}

// maxRedirectHops bounds redirect following during resolution.
const maxRedirectHops = 5

// LinkResolver follows share-link redirects with a lightweight existence
// check (no body fetch). Safe for concurrent use.
type LinkResolver struct {
	client *http.Client
}

// NewLinkResolver constructs a resolver with the given per-request timeout.
// The underlying client stops after maxRedirectHops redirects and keeps the
// last response instead of erroring, so a long chain still resolves to the
// furthest observed location.
func NewLinkResolver(timeout time.Duration) *LinkResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LinkResolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirectHops {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Resolve follows redirects on raw and returns the final observed URL.
// On any transport failure it returns raw unchanged: redirect resolution is
// an optimization, not a correctness requirement.
func (r *LinkResolver) Resolve(ctx context.Context, raw string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return raw
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return raw
	}
	defer resp.Body.Close()
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return raw
}
