package handlers

import (
	"net/http"
	"time"

	"ecoroute/internal/models"
	"ecoroute/internal/store"
	"ecoroute/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Per-km figures for a standard collection truck.
const (
	fuelPerKm      = 0.35 // liters
	carbonPerLiter = 2.68 // kg CO2
)

type RouteHandler struct {
	routes *mongo.Collection
	points *mongo.Collection
	users  store.UserStore
	jobs   JobQueue
}

func NewRouteHandler(routes, points *mongo.Collection, users store.UserStore, jobs JobQueue) *RouteHandler {
	return &RouteHandler{routes: routes, points: points, users: users, jobs: jobs}
}

type CreateRouteRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description,omitempty"`
	Date        time.Time           `json:"date,omitempty"`
	Points      []models.RoutePoint `json:"points,omitempty"`
	VehicleType string              `json:"vehicleType,omitempty"`
}

// Create plans a route, estimates its distance and footprint from the
// point coordinates and queues the route notification and email.
func (h *RouteHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	distance, totalWaste, err := h.estimate(c, userID, req.Points)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading route points"})
		return
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	now := time.Now()
	fuel := distance * fuelPerKm
	route := models.Route{
		Name:            req.Name,
		Description:     req.Description,
		Date:            date,
		Status:          models.RouteStatusPlanned,
		Points:          req.Points,
		TotalDistance:   distance,
		TotalWaste:      totalWaste,
		FuelConsumption: fuel,
		CarbonFootprint: fuel * carbonPerLiter,
		VehicleType:     req.VehicleType,
		UserID:          userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result, err := h.routes.InsertOne(ctx, route)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating route"})
		return
	}
	route.ID = result.InsertedID.(primitive.ObjectID)

	if err := h.jobs.EnqueueNotification(ctx, models.NewRouteNotification(userID, route.Name)); err != nil {
		logrus.WithError(err).Warn("failed to queue route notification")
	}
	if user, err := h.users.FindByID(ctx, userID); err == nil {
		if err := h.jobs.EnqueueRouteEmail(ctx, user.Email, user.Name, route.Name); err != nil {
			logrus.WithError(err).Warn("failed to queue route email")
		}
	}

	c.JSON(http.StatusCreated, route)
}

// estimate walks the route's points in order, summing leg distances and
// estimated volumes. Points without coordinates contribute no distance.
func (h *RouteHandler) estimate(c *gin.Context, userID primitive.ObjectID, routePoints []models.RoutePoint) (distance, totalWaste float64, err error) {
	if len(routePoints) == 0 {
		return 0, 0, nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ids := make([]primitive.ObjectID, 0, len(routePoints))
	for _, rp := range routePoints {
		ids = append(ids, rp.PointID)
		totalWaste += rp.EstimatedVolume
	}

	cursor, err := h.points.Find(ctx, bson.M{
		"_id":     bson.M{"$in": ids},
		"user_id": userID,
	})
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	byID := make(map[primitive.ObjectID]models.CollectionPoint)
	for cursor.Next(ctx) {
		var point models.CollectionPoint
		if err := cursor.Decode(&point); err != nil {
			continue
		}
		byID[point.ID] = point
	}

	var prev *models.CollectionPoint
	for _, rp := range routePoints {
		point, ok := byID[rp.PointID]
		if !ok || (point.Latitude == 0 && point.Longitude == 0) {
			continue
		}
		if prev != nil {
			distance += utils.HaversineDistance(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude)
		}
		p := point
		prev = &p
	}
	return distance, totalWaste, nil
}

func (h *RouteHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"user_id": userID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := h.routes.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading routes"})
		return
	}
	defer cursor.Close(ctx)

	routes := []models.Route{}
	if err := cursor.All(ctx, &routes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading routes"})
		return
	}

	c.JSON(http.StatusOK, routes)
}

func (h *RouteHandler) Get(c *gin.Context) {
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

	var route models.Route
	err := h.routes.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&route)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, route)
}

type UpdateRouteStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PLANNED ACTIVE COMPLETED CANCELLED"`
}

func (h *RouteHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req UpdateRouteStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.routes.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"status": req.Status, "updated_at": time.Now()}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating route"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route updated successfully"})
}

func (h *RouteHandler) Delete(c *gin.Context) {
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

	result, err := h.routes.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting route"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}
