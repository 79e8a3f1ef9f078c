package handlers

import (
	"context"
	"net/http"
	"time"

	"ecoroute/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dbTimeout = 10 * time.Second

// JobQueue is the slice of the queue client the handlers enqueue through.
type JobQueue interface {
	EnqueueWelcomeEmail(ctx context.Context, to, name string) error
	EnqueueVerificationEmail(ctx context.Context, to, name, code string) error
	EnqueueCollectionEmail(ctx context.Context, to, name, pointName string, volume float64) error
	EnqueueRouteEmail(ctx context.Context, to, name, routeName string) error
	EnqueueNotification(ctx context.Context, n models.Notification) error
}

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathObjectID parses the :id path parameter.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), dbTimeout)
}
