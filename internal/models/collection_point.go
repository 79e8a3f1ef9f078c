package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection point states
const (
	PointStatusActive   = "ACTIVE"
	PointStatusInactive = "INACTIVE"
	PointStatusFull     = "FULL"
)

type CollectionPoint struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name" validate:"required"`
	Address      string             `bson:"address" json:"address" validate:"required"`
	Neighborhood string             `bson:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	City         string             `bson:"city" json:"city" validate:"required"`
	State        string             `bson:"state" json:"state" validate:"required"`

	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`

	WasteTypes    []string `bson:"waste_types,omitempty" json:"wasteTypes,omitempty"`
	Capacity      float64  `bson:"capacity" json:"capacity" validate:"required,gt=0"`
	CurrentVolume float64  `bson:"current_volume" json:"currentVolume"`
	Status        string   `bson:"status" json:"status"`

	UserID    primitive.ObjectID `bson:"user_id" json:"userId" validate:"required"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
