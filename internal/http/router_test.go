package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alritech/tikbot/internal/domain"
	"github.com/alritech/tikbot/internal/repo"
	"github.com/alritech/tikbot/internal/stats"
)

func newTestRouter(t *testing.T, withDB bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := Deps{
		Counter: stats.Load(filepath.Join(t.TempDir(), "stats.json")),
		Version: "test",
		Started: time.Now().Add(-time.Minute),
	}
	if withDB {
		db, err := repo.Open(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			t.Fatalf("AutoMigrate: %v", err)
		}
		deps.DB = db
	}

	r := gin.New()
	RegisterRoutes(r, deps)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, false)
	w := doGet(r, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, false)
	w := doGet(r, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing standard collectors")
	}
}

func TestStatuszWithoutHistory(t *testing.T) {
	r := newTestRouter(t, false)
	w := doGet(r, "/statusz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.HistoryDisabled || resp.History != nil {
		t.Errorf("history should be marked disabled: %+v", resp)
	}
	if resp.UptimeSeconds <= 0 {
		t.Errorf("uptime = %d, want > 0", resp.UptimeSeconds)
	}
}

func TestStatuszWithHistory(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := repo.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	rec := repo.Downloads{DB: db}
	for _, chat := range []int64{1, 2} {
		if err := rec.RecordDownload(context.Background(), &domain.Download{ChatID: chat}); err != nil {
			t.Fatalf("RecordDownload: %v", err)
		}
	}

	counter := stats.Load(filepath.Join(t.TempDir(), "stats.json"))
	_, _ = counter.Increment()
	_, _ = counter.Increment()

	r := gin.New()
	RegisterRoutes(r, Deps{DB: db, Counter: counter, Version: "test", Started: time.Now()})

	w := doGet(r, "/statusz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.TotalDownloads != 2 {
		t.Errorf("TotalDownloads = %d, want 2", resp.TotalDownloads)
	}
	if resp.History == nil {
		t.Fatal("history block missing")
	}
	if resp.History.Rows != 2 || resp.History.Chats != 2 {
		t.Errorf("history = %+v", resp.History)
	}
	if resp.History.LastSentAt == nil {
		t.Error("LastSentAt missing")
	}
}

func TestNoRouteAndNoMethod(t *testing.T) {
	r := newTestRouter(t, false)

	w := doGet(r, "/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}
