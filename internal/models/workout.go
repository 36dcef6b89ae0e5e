package models

import "github.com/julianstephens/dashtrack/internal/validation"

// Workout is one logged exercise session.
type Workout struct {
	Meta
	Type        string `json:"type"`
	Duration    int    `json:"duration"` // minutes
	Calories    *int   `json:"calories"`
	WorkoutDate string `json:"workoutDate"` // YYYY-MM-DD format
}

// WorkoutInput is the insert shape for Workout.
type WorkoutInput struct {
	Type        *string       `json:"type,omitempty"`
	Duration    *int          `json:"duration,omitempty"`
	Calories    Nullable[int] `json:"calories,omitzero"`
	WorkoutDate *string       `json:"workoutDate,omitempty"`
}

// NewWorkout returns a Workout carrying the creation defaults.
func NewWorkout() *Workout {
	return &Workout{}
}

func (in WorkoutInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.String("type", in.Type, true)
	c.Positive("duration", in.Duration, true)
	c.NonNegative("calories", in.Calories.Ptr(), false)
	c.Date("workoutDate", in.WorkoutDate, true)
	return c.Err()
}

func (in WorkoutInput) ApplyTo(w *Workout) {
	if in.Type != nil {
		w.Type = *in.Type
	}
	if in.Duration != nil {
		w.Duration = *in.Duration
	}
	in.Calories.Apply(&w.Calories)
	if in.WorkoutDate != nil {
		w.WorkoutDate = *in.WorkoutDate
	}
}
