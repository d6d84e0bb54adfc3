package dashboard

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rawblock/bitvm-go/internal/store"
)

// APIHandler serves the spectator dashboard's HTTP surface: session and
// round lookups backed by the session store, a websocket subscribe
// endpoint, and the Prometheus metrics endpoint.
type APIHandler struct {
	store *store.Store
	hub   *Hub
}

// SetupRouter builds the gin engine: gin-contrib/cors configured from
// allowedOrigins (a comma-separated list, empty or "*" allowing every
// origin), then the dashboard's own routes. allowedOrigins falls back
// to the ALLOWED_ORIGINS environment variable when empty, so a bare
// `demo --serve-dashboard` without any config still behaves the way it
// always has.
func SetupRouter(st *store.Store, hub *Hub, allowedOrigins string) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(allowedOrigins))

	h := &APIHandler{store: st, hub: hub}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", hub.Subscribe)
	r.GET("/sessions/:id/rounds", h.getRounds)

	return r
}

// corsMiddleware builds a gin-contrib/cors handler from a
// comma-separated origin list, falling back to ALLOWED_ORIGINS when
// allowedOrigins is empty.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	if allowedOrigins == "" {
		allowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	}

	cfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if allowedOrigins == "" || allowedOrigins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		var origins []string
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (h *APIHandler) getRounds(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	rounds, err := h.store.RoundsForSession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rounds)
}
