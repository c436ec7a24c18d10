package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// Handler serves liveness, readiness and metrics endpoints.
type Handler struct {
	service  string
	checkers map[string]Checker
}

// NewHandler registers the database as the first readiness dependency.
func NewHandler(db *gorm.DB, service string) *Handler {
	h := &Handler{service: service, checkers: map[string]Checker{}}
	if db != nil {
		h.AddChecker("postgres", func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}
	return h
}

// AddChecker adds a named readiness dependency.
func (h *Handler) AddChecker(name string, check Checker) {
	h.checkers[name] = check
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready pings every dependency and returns 503 if any fails.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checkers))
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(status, gin.H{"service": h.service, "checks": checks})
}
