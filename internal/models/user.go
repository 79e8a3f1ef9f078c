package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleCooperative = "COOPERATIVE"
	RoleAdmin       = "ADMIN"
	RoleDriver      = "DRIVER"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Name         string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Role         string             `bson:"role" json:"role" validate:"omitempty,oneof=COOPERATIVE ADMIN DRIVER"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	State        string             `bson:"state,omitempty" json:"state,omitempty"`

	IsActive bool `bson:"is_active" json:"is_active"`

	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt     *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	EmailVerifiedAt *time.Time `bson:"email_verified_at,omitempty" json:"email_verified_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
