package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is a single waste pickup logged against a collection point.
type Collection struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CollectionPointID primitive.ObjectID  `bson:"collection_point_id" json:"collectionPointId" validate:"required"`
	RouteID           *primitive.ObjectID `bson:"route_id,omitempty" json:"routeId,omitempty"`
	Date              time.Time           `bson:"date" json:"date"`
	WasteVolume       float64             `bson:"waste_volume" json:"wasteVolume" validate:"required,gt=0"`
	WasteType         string              `bson:"waste_type,omitempty" json:"wasteType,omitempty"`
	Notes             string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updatedAt"`
}
