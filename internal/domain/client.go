package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientStatus is the membership status shown at the front desk.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// Client is a gym member. Children carry a parent phone instead of their own.
type Client struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	ManualID    string             `bson:"manualId" json:"manualId"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	IsChild     bool               `bson:"isChild" json:"isChild"`
	ParentPhone string             `bson:"parentPhone,omitempty" json:"parentPhone,omitempty"`
	BirthDate   *time.Time         `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Status      ClientStatus       `bson:"status" json:"status"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PhotoKey    string             `bson:"photoKey,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
