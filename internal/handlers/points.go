package handlers

import (
	"net/http"
	"time"

	"ecoroute/internal/models"
	"ecoroute/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PointHandler manages collection points. Every operation is scoped to
// the points the authenticated user owns.
type PointHandler struct {
	points *mongo.Collection
}

func NewPointHandler(points *mongo.Collection) *PointHandler {
	return &PointHandler{points: points}
}

type CreatePointRequest struct {
	Name         string   `json:"name" binding:"required"`
	Address      string   `json:"address" binding:"required"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	City         string   `json:"city" binding:"required"`
	State        string   `json:"state" binding:"required"`
	Latitude     float64  `json:"latitude,omitempty"`
	Longitude    float64  `json:"longitude,omitempty"`
	WasteTypes   []string `json:"wasteTypes,omitempty"`
	Capacity     float64  `json:"capacity" binding:"required,gt=0"`
}

func (h *PointHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreatePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	now := time.Now()
	point := models.CollectionPoint{
		Name:         req.Name,
		Address:      req.Address,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		WasteTypes:   req.WasteTypes,
		Capacity:     req.Capacity,
		Status:       models.PointStatusActive,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validator.Struct(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.points.InsertOne(ctx, point)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating point"})
		return
	}
	point.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, point)
}

func (h *PointHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := h.points.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading points"})
		return
	}
	defer cursor.Close(ctx)

	points := []models.CollectionPoint{}
	if err := cursor.All(ctx, &points); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading points"})
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *PointHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var point models.CollectionPoint
	err := h.points.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&point)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Point not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, point)
}

func (h *PointHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// Ownership and identity are not updatable.
	delete(updates, "_id")
	delete(updates, "id")
	delete(updates, "user_id")
	delete(updates, "userId")
	delete(updates, "created_at")
	updates["updated_at"] = time.Now()

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.points.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": updates},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating point"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Point not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Point updated successfully"})
}

func (h *PointHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.points.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting point"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Point not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Point deleted successfully"})
}
