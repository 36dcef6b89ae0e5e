package models

import "github.com/julianstephens/dashtrack/internal/validation"

// ScheduleItem is a time-blocked activity on a specific day.
type ScheduleItem struct {
	Meta
	Time     string `json:"time"` // HH:MM format
	Activity string `json:"activity"`
	Duration int    `json:"duration"` // minutes
	Date     string `json:"date"`     // YYYY-MM-DD format
}

// ScheduleItemInput is the insert shape for ScheduleItem.
type ScheduleItemInput struct {
	Time     *string `json:"time,omitempty"`
	Activity *string `json:"activity,omitempty"`
	Duration *int    `json:"duration,omitempty"`
	Date     *string `json:"date,omitempty"`
}

// NewScheduleItem returns a ScheduleItem carrying the creation defaults.
func NewScheduleItem() *ScheduleItem {
	return &ScheduleItem{}
}

func (in ScheduleItemInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.Clock("time", in.Time, true)
	c.String("activity", in.Activity, true)
	c.Positive("duration", in.Duration, true)
	c.Date("date", in.Date, true)
	return c.Err()
}

func (in ScheduleItemInput) ApplyTo(s *ScheduleItem) {
	if in.Time != nil {
		s.Time = *in.Time
	}
	if in.Activity != nil {
		s.Activity = *in.Activity
	}
	if in.Duration != nil {
		s.Duration = *in.Duration
	}
	if in.Date != nil {
		s.Date = *in.Date
	}
}
