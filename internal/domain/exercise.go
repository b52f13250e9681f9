// internal/domain/exercise.go
package domain

// ExerciseSet is one prescribed or performed set inside an exercise.
type ExerciseSet struct {
	Order     int    `bson:"order" json:"order"`
	Reps      string `bson:"reps,omitempty" json:"reps,omitempty"`           // e.g. "12", "8-10"
	Weight    string `bson:"weight,omitempty" json:"weight,omitempty"`       // free text, e.g. "40kg"
	Technique string `bson:"technique,omitempty" json:"technique,omitempty"` // e.g. "drop set"
	Equipment string `bson:"equipment,omitempty" json:"equipment,omitempty"`
}

// Exercise is an exercise entry of a split template or a training session.
type Exercise struct {
	Order int           `bson:"order" json:"order"`
	Name  string        `bson:"name" json:"name"`
	Note  string        `bson:"note,omitempty" json:"note,omitempty"`
	Sets  []ExerciseSet `bson:"sets" json:"sets"`
}

// RenumberExercises returns a copy of exercises with exercise and set orders
// rewritten to 1..n in slice order.
func RenumberExercises(exercises []Exercise) []Exercise {
	out := make([]Exercise, len(exercises))
	for i, ex := range exercises {
		ex.Order = i + 1
		sets := make([]ExerciseSet, len(ex.Sets))
		for j, set := range ex.Sets {
			set.Order = j + 1
			sets[j] = set
		}
		ex.Sets = sets
		out[i] = ex
	}
	return out
}
