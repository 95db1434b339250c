package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsValidLink(t *testing.T) {
	cases := map[string]struct {
		link string
		want bool
	}{
		"www link":        {"https://www.tiktok.com/@user/video/123", true},
		"vm share link":   {"https://vm.tiktok.com/ZM123abc/", true},
		"vt share link":   {"https://vt.tiktok.com/ZS456def/", true},
		"http scheme":     {"http://www.tiktok.com/@user/video/123", false},
		"other host":      {"https://www.youtube.com/watch?v=abc", false},
		"bare domain":     {"https://www.tiktok.com/", false},
		"other subdomain": {"https://m.tiktok.com/v/123", false},
		"plain text":      {"hello", false},
		"empty":           {"", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsValidLink(tc.link); got != tc.want {
				t.Fatalf("IsValidLink(%q) = %v, want %v", tc.link, got, tc.want)
			}
		})
	}
}

func TestResolveFollowsRedirects(t *testing.T) {
	var final *httptest.Server
	final = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	hop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/@user/video/123", http.StatusMovedPermanently)
	}))
	defer hop.Close()

	r := NewLinkResolver(5 * time.Second)
	got := r.Resolve(context.Background(), hop.URL+"/share")
	want := final.URL + "/@user/video/123"
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveStopsAfterMaxHops(t *testing.T) {
	var srv *httptest.Server
	hops := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, srv.URL+"/next", http.StatusFound)
	}))
	defer srv.Close()

	r := NewLinkResolver(5 * time.Second)
	got := r.Resolve(context.Background(), srv.URL)
	if got == "" {
		t.Fatal("Resolve returned empty URL")
	}
	if hops > maxRedirectHops+1 {
		t.Fatalf("followed %d hops, want at most %d", hops, maxRedirectHops+1)
	}
}

func TestResolveFallsBackOnTransportFailure(t *testing.T) {
	r := NewLinkResolver(200 * time.Millisecond)
	const raw = "https://vm.tiktok.com/does-not-resolve/"

	// Unroutable address: connection refused on a just-closed port.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead := srv.URL
	srv.Close()

	if got := r.Resolve(context.Background(), dead); got != dead {
		t.Fatalf("Resolve on dead server = %q, want input %q", got, dead)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := r.Resolve(ctx, raw); got != raw {
		t.Fatalf("Resolve with cancelled ctx = %q, want input %q", got, raw)
	}
}

func TestResolveFallsBackOnBadURL(t *testing.T) {
	r := NewLinkResolver(time.Second)
	const raw = "https://vm.tiktok.com/\x00bad"
	if got := r.Resolve(context.Background(), raw); got != raw {
		t.Fatalf("Resolve on malformed URL = %q, want input", got)
	}
}
