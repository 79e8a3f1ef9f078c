package handlers

import (
	"net/http"

	"ecoroute/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	stats *services.StatsService
}

func NewDashboardHandler(stats *services.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.stats.Dashboard(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Impact(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	impact, err := h.stats.Impact(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading impact"})
		return
	}
	c.JSON(http.StatusOK, impact)
}

func (h *DashboardHandler) Charts(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Charts())
}
