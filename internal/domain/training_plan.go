// internal/domain/training_plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Split is one workout day of a recurring cycle, e.g. "Push".
type Split struct {
	Order     int        `bson:"order" json:"order"`
	Name      string     `bson:"name" json:"name"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// TrainingPlan is the recurring workout template of a subscription.
// Session n maps to split (n-1) mod CycleLength.
type TrainingPlan struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubscriptionID primitive.ObjectID `bson:"subscriptionId" json:"subscriptionId"`
	CycleLength    int                `bson:"cycleLength" json:"cycleLength"`
	Splits         []Split            `bson:"splits" json:"splits"`
	CreatedBy      primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SplitForSession returns the template split for session n (n >= 1).
// Falls back to the first split when the cycle index is past the defined splits,
// and returns nil when there are no splits at all.
func (p *TrainingPlan) SplitForSession(n int) *Split {
	if len(p.Splits) == 0 {
		return nil
	}
	cycle := p.CycleLength
	if cycle < 1 {
		cycle = 1
	}
	idx := (n - 1) % cycle
	if idx < len(p.Splits) {
		return &p.Splits[idx]
	}
	return &p.Splits[0]
}

// CyclePosition returns the 0-based cycle slot of session n.
func (p *TrainingPlan) CyclePosition(n int) int {
	cycle := p.CycleLength
	if cycle < 1 {
		cycle = 1
	}
	return (n - 1) % cycle
}
