package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingSession is one 1-on-1 workout instance of a subscription.
// (SubscriptionID, SessionNumber) is unique. Once completed, only the
// completing trainer or an admin may edit it.
type TrainingSession struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SubscriptionID primitive.ObjectID  `bson:"subscriptionId" json:"subscriptionId"`
	SessionNumber  int                 `bson:"sessionNumber" json:"sessionNumber"`
	Name           string              `bson:"name" json:"name"`
	Exercises      []Exercise          `bson:"exercises" json:"exercises"`
	IsCompleted    bool                `bson:"isCompleted" json:"isCompleted"`
	DateCompleted  *time.Time          `bson:"dateCompleted,omitempty" json:"dateCompleted,omitempty"`
	CompletedBy    *primitive.ObjectID `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// CanEdit reports whether the given user may modify the session.
func (s *TrainingSession) CanEdit(userID primitive.ObjectID, role Role) bool {
	if !s.IsCompleted || role == RoleAdmin {
		return true
	}
	return s.CompletedBy != nil && *s.CompletedBy == userID
}

// HasContent reports whether at least one exercise was recorded.
func (s *TrainingSession) HasContent() bool {
	return len(s.Exercises) > 0
}

// SessionLog is the legacy visit log. Each entry consumes one unit.
type SessionLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubscriptionID primitive.ObjectID `bson:"subscriptionId" json:"subscriptionId"`
	SessionNumber  int                `bson:"sessionNumber" json:"sessionNumber"`
	SplitOrder     *int               `bson:"splitOrder,omitempty" json:"splitOrder,omitempty"`
	DateCompleted  time.Time          `bson:"dateCompleted" json:"dateCompleted"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
