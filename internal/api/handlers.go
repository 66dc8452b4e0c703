// Package api exposes the gateway's ingress and admin surface (spec.md
// §6) over gin, the way the teacher's api.Handler does.
package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/karteekpv77/loggateway/internal/gateway"
	"github.com/karteekpv77/loggateway/internal/gwerr"
)

// Handler binds gin routes to a Gateway.
type Handler struct {
	gw     *gateway.Gateway
	logger *zap.Logger
	limits Limits
}

// NewHandler creates a Handler for gw, enforcing limits on every
// submitted packet.
func NewHandler(gw *gateway.Gateway, limits Limits, logger *zap.Logger) *Handler {
	return &Handler{gw: gw, logger: logger, limits: limits}
}

// SetupRoutes configures every route in spec.md §6.
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.loggingMiddleware())
	r.Use(corsMiddleware())

	r.POST("/logs", h.SubmitLogs)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/stats", h.Stats)
	r.GET("/analyzers", h.ListAnalyzers)
	r.POST("/analyzers", h.AdmitAnalyzer)
	r.DELETE("/analyzers/:id", h.EvictAnalyzer)
	r.POST("/analyzers/:id/health", h.TriggerProbe)
	r.GET("/dead-letter", h.DeadLetters)

	return r
}

// SubmitLogs handles POST /logs.
func (h *Handler) SubmitLogs(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log packet"})
		return
	}

	packet, err := decodePacket(body, h.limits)
	if err != nil {
		h.logger.Error("invalid log packet", zap.Error(err), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log packet"})
		return
	}

	if err := h.gw.SubmitPacket(packet); err != nil {
		if errors.Is(err, gwerr.ErrQueueFull) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Service temporarily unavailable",
				"message": "Queue full, try again later",
			})
			return
		}
		if errors.Is(err, gwerr.ErrShutdown) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service shutting down",
				"message": "Gateway is not accepting new packets",
			})
			return
		}
		h.logger.Error("failed to submit packet", zap.Error(err), zap.String("packet_id", packet.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"packetId":     packet.ID,
		"messageCount": len(packet.Messages),
		"timestamp":    time.Now(),
	})
}

// Health handles GET /health: gateway liveness, independent of analyzer
// health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}

// Ready handles GET /ready: 200 iff at least one analyzer is healthy.
func (h *Handler) Ready(c *gin.Context) {
	if h.gw.Ready() {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
}

// Stats handles GET /stats.
func (h *Handler) Stats(c *gin.Context) {
	stats := h.gw.GetStats()

	analyzers := make(map[string]gin.H, len(stats.Analyzers))
	for _, a := range stats.Analyzers {
		analyzers[a.ID] = gin.H{
			"endpoint":              a.Endpoint,
			"weight":                a.Weight,
			"healthy":               a.Healthy,
			"consecutive_successes": a.ConsecutiveSuccesses,
			"consecutive_failures":  a.ConsecutiveFailures,
			"total_checks":          a.TotalChecks,
			"total_failures":        a.TotalFailures,
			"probe_failures":        a.ProbeFailures,
			"dispatch_failures":     a.DispatchFailures,
			"last_response_time_ms": a.LastResponseTimeMs,
			"last_seen":             a.LastSeen,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"packets_received":  stats.PacketsReceived,
		"packets_processed": stats.PacketsProcessed,
		"packets_dropped":   stats.PacketsDropped,
		"errors":            stats.Errors,
		"avg_latency_ms":    stats.AvgLatencyMs,
		"queue_size":        stats.QueueSize,
		"queue_capacity":    stats.QueueCapacity,
		"uptime":            stats.Uptime.String(),
		"analyzers":         analyzers,
		"timestamp":         time.Now(),
	})
}

// ListAnalyzers handles GET /analyzers.
func (h *Handler) ListAnalyzers(c *gin.Context) {
	stats := h.gw.GetStats()
	c.JSON(http.StatusOK, gin.H{
		"analyzers": stats.Analyzers,
		"count":     len(stats.Analyzers),
		"timestamp": time.Now(),
	})
}

type admitRequest struct {
	ID       string  `json:"id"`
	Endpoint string  `json:"endpoint"`
	Weight   float64 `json:"weight"`
}

// AdmitAnalyzer handles POST /analyzers.
func (h *Handler) AdmitAnalyzer(c *gin.Context) {
	var req admitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Weight == 0 {
		req.Weight = 1
	}

	if err := h.gw.AdmitAnalyzer(req.ID, req.Endpoint, req.Weight); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Analyzer admitted",
		"id":        req.ID,
		"timestamp": time.Now(),
	})
}

// EvictAnalyzer handles DELETE /analyzers/{id}.
func (h *Handler) EvictAnalyzer(c *gin.Context) {
	id := c.Param("id")
	h.gw.EvictAnalyzer(id)
	c.JSON(http.StatusOK, gin.H{"message": "Analyzer evicted", "id": id, "timestamp": time.Now()})
}

// TriggerProbe handles POST /analyzers/{id}/health.
func (h *Handler) TriggerProbe(c *gin.Context) {
	id := c.Param("id")
	if err := h.gw.TriggerProbe(c.Request.Context(), id); err != nil {
		if errors.Is(err, gwerr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analyzer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Probe failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Probe triggered", "id": id, "timestamp": time.Now()})
}

// DeadLetters handles GET /dead-letter.
func (h *Handler) DeadLetters(c *gin.Context) {
	entries, err := h.gw.DeadLetters()
	if err != nil {
		h.logger.Error("failed to read dead letter store", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read dead letter store"})
		return
	}

	const maxEntries = 100
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(entries),
		"packets":   entries,
		"timestamp": time.Now(),
	})
}
