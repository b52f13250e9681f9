package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupExerciseType tells how results of a group exercise are measured.
type GroupExerciseType string

const (
	GroupExerciseReps   GroupExerciseType = "reps"
	GroupExerciseWeight GroupExerciseType = "weight"
	GroupExerciseTime   GroupExerciseType = "time"
)

// Valid reports whether t is a known exercise type.
func (t GroupExerciseType) Valid() bool {
	switch t {
	case GroupExerciseReps, GroupExerciseWeight, GroupExerciseTime:
		return true
	}
	return false
}

// GroupResult is one client's result for a group exercise.
type GroupResult struct {
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	ClientName string             `bson:"clientName" json:"clientName"`
	Reps       string             `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight     string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Time       string             `bson:"time,omitempty" json:"time,omitempty"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
}

// GroupExercise is an exercise of a group workout with per-client results.
type GroupExercise struct {
	Name    string            `bson:"name" json:"name"`
	Type    GroupExerciseType `bson:"type" json:"type"`
	Target  string            `bson:"target,omitempty" json:"target,omitempty"`
	Results []GroupResult     `bson:"results" json:"results"`
}

// GroupParticipant is an attendee of a group session.
// Deducted records whether a unit was consumed from SubscriptionID.
type GroupParticipant struct {
	ClientID       primitive.ObjectID  `bson:"clientId" json:"clientId"`
	SubscriptionID *primitive.ObjectID `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	Note           string              `bson:"note,omitempty" json:"note,omitempty"`
	Deducted       bool                `bson:"deducted" json:"deducted"`
}

// GroupSessionLog is a coach-led group session and its roster.
type GroupSessionLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID      primitive.ObjectID `bson:"coachId" json:"coachId"`
	Date         time.Time          `bson:"date" json:"date"`
	DayName      string             `bson:"dayName" json:"dayName"`
	Exercises    []GroupExercise    `bson:"exercises" json:"exercises"`
	Participants []GroupParticipant `bson:"participants" json:"participants"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// GroupTemplateExercise is a reusable group exercise without results.
type GroupTemplateExercise struct {
	Name   string            `bson:"name" json:"name"`
	Type   GroupExerciseType `bson:"type" json:"type"`
	Target string            `bson:"target,omitempty" json:"target,omitempty"`
}

// GroupTemplate is a saved group workout.
type GroupTemplate struct {
	ID        primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	Name      string                  `bson:"name" json:"name"`
	Exercises []GroupTemplateExercise `bson:"exercises" json:"exercises"`
	CreatedBy primitive.ObjectID      `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time               `bson:"createdAt" json:"createdAt"`
}

// CoachSchedule places a client in a coach's weekly group slot.
type CoachSchedule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	DayOfWeek time.Weekday       `bson:"dayOfWeek" json:"dayOfWeek"`
	Time      string             `bson:"time" json:"time"` // "HH:MM"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
