package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferStatus defines the possible states of a session transfer request.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferAccepted  TransferStatus = "accepted"
	TransferRejected  TransferStatus = "rejected"
	TransferCancelled TransferStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferAccepted || s == TransferRejected || s == TransferCancelled
}

// TransferRequest hands a block of sessions of a subscription from one trainer to another.
// Acceptance does not change the subscription's trainer.
type TransferRequest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FromTrainerID  primitive.ObjectID `bson:"fromTrainerId" json:"fromTrainerId"`
	ToTrainerID    primitive.ObjectID `bson:"toTrainerId" json:"toTrainerId"`
	SubscriptionID primitive.ObjectID `bson:"subscriptionId" json:"subscriptionId"`
	SessionsCount  int                `bson:"sessionsCount" json:"sessionsCount"`
	ScheduleNotes  string             `bson:"scheduleNotes,omitempty" json:"scheduleNotes,omitempty"`
	Status         TransferStatus     `bson:"status" json:"status"`
	RespondedAt    *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
