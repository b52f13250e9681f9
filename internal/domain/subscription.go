package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InBody is the body composition snapshot taken when a package is sold.
type InBody struct {
	Height   float64 `bson:"height,omitempty" json:"height,omitempty"`
	Weight   float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Muscle   float64 `bson:"muscle,omitempty" json:"muscle,omitempty"`
	Fat      float64 `bson:"fat,omitempty" json:"fat,omitempty"`
	TBW      float64 `bson:"tbw,omitempty" json:"tbw,omitempty"`
	Goal     string  `bson:"goal,omitempty" json:"goal,omitempty"`
	Activity string  `bson:"activity,omitempty" json:"activity,omitempty"`
	Notes    string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Subscription is a client's purchased package instance.
// At most one subscription per client is active at a time.
type Subscription struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID     primitive.ObjectID  `bson:"clientId" json:"clientId"`
	PlanID       *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	TrainerID    *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
	StartDate    time.Time           `bson:"startDate" json:"startDate"`
	EndDate      *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive     bool                `bson:"isActive" json:"isActive"`
	SessionsUsed int                 `bson:"sessionsUsed" json:"sessionsUsed"`
	InBody       InBody              `bson:"inBody" json:"inBody"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EnsureEndDate derives the end date from the plan duration if it is still unset.
// A set end date is never touched.
func (s *Subscription) EnsureEndDate(plan *Plan) {
	if s.EndDate != nil || plan == nil {
		return
	}
	end := s.StartDate.AddDate(0, 0, plan.DurationDays)
	s.EndDate = &end
}

// ProgressPercentage returns floor(used/units*100), or 0 without a unit-bearing plan.
func (s *Subscription) ProgressPercentage(plan *Plan) int {
	if plan == nil || plan.Units == 0 {
		return 0
	}
	return s.SessionsUsed * 100 / plan.Units
}

// RemainingUnits returns how many units are left on the package.
func (s *Subscription) RemainingUnits(plan *Plan) int {
	if plan == nil {
		return 0
	}
	return plan.Units - s.SessionsUsed
}

// ShouldDeactivate reports whether the package is exhausted or past its end date on day today.
func (s *Subscription) ShouldDeactivate(plan *Plan, today time.Time) bool {
	if plan != nil && s.SessionsUsed >= plan.Units {
		return true
	}
	return s.EndDate != nil && DateOnly(today).After(DateOnly(*s.EndDate))
}

// DateOnly returns the calendar date of t (in t's location) as midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
