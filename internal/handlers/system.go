package handlers

import (
	"net/http"
	"time"

	"ecoroute/internal/queue"
	"ecoroute/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SystemHandler serves the health check and the admin-only operational
// status of the job queues and the realtime layer.
type SystemHandler struct {
	db        *mongo.Client
	inspector *queue.Inspector
	hub       *realtime.Hub
	startedAt time.Time
}

func NewSystemHandler(db *mongo.Client, inspector *queue.Inspector, hub *realtime.Hub) *SystemHandler {
	return &SystemHandler{
		db:        db,
		inspector: inspector,
		hub:       hub,
		startedAt: time.Now(),
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.Ping(ctx, readpref.Primary()); err != nil {
		dbStatus = "unreachable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":      dbStatus,
		"uptime":      time.Since(h.startedAt).String(),
		"database":    dbStatus,
		"connections": h.hub.ConnectionCount(),
	})
}

// QueueStatus reports job queue depths and realtime presence counts.
func (h *SystemHandler) QueueStatus(c *gin.Context) {
	queues, err := h.inspector.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading queue status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queues": queues,
		"realtime": gin.H{
			"onlineUsers": h.hub.OnlineCount(),
			"connections": h.hub.ConnectionCount(),
		},
	})
}
