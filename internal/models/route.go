package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Route states
const (
	RouteStatusPlanned   = "PLANNED"
	RouteStatusActive    = "ACTIVE"
	RouteStatusCompleted = "COMPLETED"
	RouteStatusCancelled = "CANCELLED"
)

type RoutePoint struct {
	PointID         primitive.ObjectID `bson:"point_id" json:"pointId" validate:"required"`
	Order           int                `bson:"order" json:"order"`
	EstimatedVolume float64            `bson:"estimated_volume,omitempty" json:"estimatedVolume,omitempty"`
}

type Route struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" validate:"required"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time          `bson:"date" json:"date"`
	Status      string             `bson:"status" json:"status"`
	Points      []RoutePoint       `bson:"points,omitempty" json:"points,omitempty"`

	// Environmental impact figures for the planned run
	TotalDistance   float64 `bson:"total_distance" json:"totalDistance"`
	TotalWaste      float64 `bson:"total_waste" json:"totalWaste"`
	FuelConsumption float64 `bson:"fuel_consumption" json:"fuelConsumption"`
	CarbonFootprint float64 `bson:"carbon_footprint" json:"carbonFootprint"`
	VehicleType     string  `bson:"vehicle_type" json:"vehicleType"`

	UserID    primitive.ObjectID `bson:"user_id" json:"userId" validate:"required"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
