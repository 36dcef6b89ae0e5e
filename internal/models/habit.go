package models

import (
	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/validation"
)

// Habit is a recurring practice with a running streak and a Monday-first
// record of the current week.
type Habit struct {
	Meta
	Name         string `json:"name"`
	Streak       int    `json:"streak"`
	WeekProgress []bool `json:"weekProgress"`
}

// HabitInput is the insert shape for Habit.
type HabitInput struct {
	Name         *string `json:"name,omitempty"`
	Streak       *int    `json:"streak,omitempty"`
	WeekProgress []bool  `json:"weekProgress,omitempty"`
}

// NewHabit returns a Habit carrying the creation defaults.
func NewHabit() *Habit {
	return &Habit{
		Streak:       constants.DefaultHabitStreak,
		WeekProgress: make([]bool, constants.DaysPerWeek),
	}
}

func (in HabitInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.String("name", in.Name, true)
	c.NonNegative("streak", in.Streak, false)
	c.Flags("weekProgress", in.WeekProgress, constants.DaysPerWeek, false)
	return c.Err()
}

func (in HabitInput) ApplyTo(h *Habit) {
	if in.Name != nil {
		h.Name = *in.Name
	}
	if in.Streak != nil {
		h.Streak = *in.Streak
	}
	if in.WeekProgress != nil {
		h.WeekProgress = append([]bool(nil), in.WeekProgress...)
	}
}
