package services

import (
	"context"
	"fmt"
	"math"

	"ecoroute/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Impact conversion factors, per kg of collected waste.
const (
	treesPerKg  = 0.02
	waterPerKg  = 5.0  // liters
	energyPerKg = 0.35 // kWh
	carbonPerKg = 0.13 // kg CO2

	// carbonPerActiveRoute is the rough CO2 saving attributed to one
	// active route on the dashboard.
	carbonPerActiveRoute = 65.0
)

type DashboardStats struct {
	Points      int64   `json:"points"`
	Routes      int64   `json:"routes"`
	TotalWaste  float64 `json:"totalWaste"`
	TotalCarbon float64 `json:"totalCarbon"`
	Collections int64   `json:"collections"`
}

type ImpactReport struct {
	TreesSaved  int `json:"treesSaved"`
	WaterSaved  int `json:"waterSaved"`
	EnergySaved int `json:"energySaved"`
	CarbonSaved int `json:"carbonSaved"`
}

type StatsService struct {
	points      *mongo.Collection
	routes      *mongo.Collection
	collections *mongo.Collection
}

func NewStatsService(points, routes, collections *mongo.Collection) *StatsService {
	return &StatsService{points: points, routes: routes, collections: collections}
}

// userPointIDs lists the ids of every collection point owned by the user.
func (s *StatsService) userPointIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.points.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user points: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var point models.CollectionPoint
		if err := cursor.Decode(&point); err != nil {
			continue
		}
		ids = append(ids, point.ID)
	}
	return ids, nil
}

// totalWaste sums logged collection volume across the user's points.
func (s *StatsService) totalWaste(ctx context.Context, pointIDs []primitive.ObjectID) (float64, int64, error) {
	if len(pointIDs) == 0 {
		return 0, 0, nil
	}

	cursor, err := s.collections.Find(ctx, bson.M{
		"collection_point_id": bson.M{"$in": pointIDs},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load collections: %w", err)
	}
	defer cursor.Close(ctx)

	var total float64
	var count int64
	for cursor.Next(ctx) {
		var c models.Collection
		if err := cursor.Decode(&c); err != nil {
			continue
		}
		total += c.WasteVolume
		count++
	}
	return total, count, nil
}

func (s *StatsService) Dashboard(ctx context.Context, userID primitive.ObjectID) (*DashboardStats, error) {
	points, err := s.points.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to count points: %w", err)
	}

	routes, err := s.routes.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  models.RouteStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count routes: %w", err)
	}

	pointIDs, err := s.userPointIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	waste, collections, err := s.totalWaste(ctx, pointIDs)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Points:      points,
		Routes:      routes,
		TotalWaste:  waste,
		TotalCarbon: float64(routes) * carbonPerActiveRoute,
		Collections: collections,
	}, nil
}

func (s *StatsService) Impact(ctx context.Context, userID primitive.ObjectID) (*ImpactReport, error) {
	pointIDs, err := s.userPointIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	waste, _, err := s.totalWaste(ctx, pointIDs)
	if err != nil {
		return nil, err
	}
	return ImpactFromWaste(waste), nil
}

// ImpactFromWaste converts a collected volume into the environmental
// figures shown on the impact page.
func ImpactFromWaste(totalWaste float64) *ImpactReport {
	return &ImpactReport{
		TreesSaved:  int(math.Floor(totalWaste * treesPerKg)),
		WaterSaved:  int(math.Floor(totalWaste * waterPerKg)),
		EnergySaved: int(math.Floor(totalWaste * energyPerKg)),
		CarbonSaved: int(math.Floor(totalWaste * carbonPerKg)),
	}
}

// ChartSeries is the static demo data the charts endpoint serves.
type ChartSeries struct {
	WasteByType []WasteSlice  `json:"wasteByType"`
	ImpactData  []MonthlyData `json:"impactData"`
}

type WasteSlice struct {
	Type   string  `json:"type"`
	Volume float64 `json:"volume"`
}

type MonthlyData struct {
	Month  string  `json:"month"`
	Carbon float64 `json:"carbon"`
}

func (s *StatsService) Charts() *ChartSeries {
	return &ChartSeries{
		WasteByType: []WasteSlice{
			{Type: "Plastic", Volume: 850},
			{Type: "Paper", Volume: 1200},
			{Type: "Glass", Volume: 400},
			{Type: "Metal", Volume: 650},
		},
		ImpactData: []MonthlyData{
			{Month: "Jan", Carbon: 120},
			{Month: "Feb", Carbon: 190},
			{Month: "Mar", Carbon: 300},
			{Month: "Apr", Carbon: 450},
			{Month: "May", Carbon: 520},
			{Month: "Jun", Carbon: 324},
		},
	}
}
