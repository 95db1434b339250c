// Package httpapi wires the optional ops HTTP listener (Gin): liveness,
// Prometheus metrics, and a JSON status snapshot. It serves operators only;
// all user traffic flows through the Telegram long-poll loop, so the surface
// here stays read-only and unauthenticated.
//
// Middleware order: RequestID → Logger → Recovery → Metrics, so panics and
// errors are logged with a correlation ID and every request is counted.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/alritech/tikbot/internal/http/middleware"
	"github.com/alritech/tikbot/internal/repo"
	"github.com/alritech/tikbot/internal/stats"
)

// Deps carries everything the ops endpoints read. DB may be nil when
// download history is disabled; /statusz then omits the history block.
type Deps struct {
	DB      *gorm.DB
	Counter *stats.Counter
	Version string
	Started time.Time
}

// statusResponse is the /statusz payload.
type statusResponse struct {
	Status          string         `json:"status"`
	Version         string         `json:"version"`
	UptimeSeconds   int64          `json:"uptime_seconds"`
	TotalDownloads  int64          `json:"total_downloads"`
	StatsPath       string         `json:"stats_path"`
	History         *historyStatus `json:"history,omitempty"`
	HistoryDisabled bool           `json:"history_disabled,omitempty"`
}

type historyStatus struct {
	Rows       int64      `json:"rows"`
	Chats      int64      `json:"chats"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

// RegisterRoutes attaches middleware and the ops endpoints to the engine.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/statusz", statusHandler(deps))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": "method_not_allowed", "message": "method not allowed"})
	})
}

// statusHandler snapshots the usage counter and, when history is enabled,
// aggregate download history. History errors degrade to an omitted block
// rather than failing the endpoint.
func statusHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := statusResponse{
			Status:         "ok",
			Version:        deps.Version,
			UptimeSeconds:  int64(time.Since(deps.Started).Seconds()),
			TotalDownloads: deps.Counter.Total(),
			StatsPath:      deps.Counter.Path(),
		}

		if deps.DB == nil {
			resp.HistoryDisabled = true
			c.JSON(http.StatusOK, resp)
			return
		}

		count, chats, lastAt, err := repo.DownloadStats(c.Request.Context(), deps.DB)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("download stats query failed")
			c.JSON(http.StatusOK, resp)
			return
		}
		resp.History = &historyStatus{Rows: count, Chats: chats, LastSentAt: lastAt}
		c.JSON(http.StatusOK, resp)
	}
}
