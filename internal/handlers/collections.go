package handlers

import (
	"net/http"
	"time"

	"ecoroute/internal/models"
	"ecoroute/internal/realtime"
	"ecoroute/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionHandler struct {
	collections *mongo.Collection
	points      *mongo.Collection
	users       store.UserStore
	jobs        JobQueue
	hub         *realtime.Hub
}

func NewCollectionHandler(collections, points *mongo.Collection, users store.UserStore, jobs JobQueue, hub *realtime.Hub) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		points:      points,
		users:       users,
		jobs:        jobs,
		hub:         hub,
	}
}

type CreateCollectionRequest struct {
	CollectionPointID string    `json:"collectionPointId" binding:"required"`
	RouteID           string    `json:"routeId,omitempty"`
	Date              time.Time `json:"date,omitempty"`
	WasteVolume       float64   `json:"wasteVolume" binding:"required,gt=0"`
	WasteType         string    `json:"wasteType,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// Create logs a pickup against one of the user's points, bumps the
// point's volume and queues the collection notification and email. The
// point owner also gets a live push when connected.
func (h *CollectionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	pointID, err := primitive.ObjectIDFromHex(req.CollectionPointID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid collection point id"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var point models.CollectionPoint
	err = h.points.FindOne(ctx, bson.M{"_id": pointID, "user_id": userID}).Decode(&point)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Point not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	now := time.Now()
	collection := models.Collection{
		CollectionPointID: pointID,
		Date:              date,
		WasteVolume:       req.WasteVolume,
		WasteType:         req.WasteType,
		Notes:             req.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.RouteID != "" {
		routeID, err := primitive.ObjectIDFromHex(req.RouteID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route id"})
			return
		}
		collection.RouteID = &routeID
	}

	result, err := h.collections.InsertOne(ctx, collection)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating collection"})
		return
	}
	collection.ID = result.InsertedID.(primitive.ObjectID)

	h.bumpPointVolume(c, &point, req.WasteVolume)

	n := models.NewCollectionNotification(userID, point.Name, req.WasteVolume)
	if err := h.jobs.EnqueueNotification(ctx, n); err != nil {
		logrus.WithError(err).Warn("failed to queue collection notification")
	}
	// Live copy for an online owner, the durable one arrives via the queue.
	h.hub.PushNotification(&n)

	if user, err := h.users.FindByID(ctx, userID); err == nil {
		if err := h.jobs.EnqueueCollectionEmail(ctx, user.Email, user.Name, point.Name, req.WasteVolume); err != nil {
			logrus.WithError(err).Warn("failed to queue collection email")
		}
	}

	c.JSON(http.StatusCreated, collection)
}

// bumpPointVolume adds the pickup to the point's running volume and flips
// the point to FULL when capacity is reached.
func (h *CollectionHandler) bumpPointVolume(c *gin.Context, point *models.CollectionPoint, volume float64) {
	ctx, cancel := requestContext(c)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"current_volume": volume},
		"$set": bson.M{"updated_at": time.Now()},
	}
	if point.CurrentVolume+volume >= point.Capacity {
		update["$set"].(bson.M)["status"] = models.PointStatusFull
	}

	if _, err := h.points.UpdateOne(ctx, bson.M{"_id": point.ID}, update); err != nil {
		logrus.WithError(err).WithField("point", point.ID.Hex()).Error("failed to update point volume")
	}
}

func (h *CollectionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	// The user's collections are the ones logged against their points.
	cursor, err := h.points.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading points"})
		return
	}
	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var point models.CollectionPoint
		if err := cursor.Decode(&point); err != nil {
			continue
		}
		ids = append(ids, point.ID)
	}
	cursor.Close(ctx)

	collections := []models.Collection{}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, collections)
		return
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err = h.collections.Find(ctx, bson.M{"collection_point_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading collections"})
		return
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &collections); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading collections"})
		return
	}

	c.JSON(http.StatusOK, collections)
}
