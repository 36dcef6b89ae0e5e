package models

import (
	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/validation"
)

const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in-progress"
	ProjectStatusCompleted  = "completed"
)

// ProjectStatuses lists the accepted status values.
var ProjectStatuses = []string{ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusCompleted}

// Project tracks a longer-running effort and its completion percentage.
type Project struct {
	Meta
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	Deadline    *string `json:"deadline"` // YYYY-MM-DD format
}

// ProjectInput is the insert shape for Project.
type ProjectInput struct {
	Name        *string          `json:"name,omitempty"`
	Description Nullable[string] `json:"description,omitzero"`
	Status      *string          `json:"status,omitempty"`
	Progress    *int             `json:"progress,omitempty"`
	Deadline    Nullable[string] `json:"deadline,omitzero"`
}

// NewProject returns a Project carrying the creation defaults.
func NewProject() *Project {
	return &Project{
		Status:   constants.DefaultProjectStatus,
		Progress: constants.DefaultProjectProgress,
	}
}

func (in ProjectInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.String("name", in.Name, true)
	c.Enum("status", in.Status, ProjectStatuses, false)
	c.IntRange("progress", in.Progress, 0, 100, false)
	c.Date("deadline", in.Deadline.Ptr(), false)
	return c.Err()
}

func (in ProjectInput) ApplyTo(p *Project) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	in.Description.Apply(&p.Description)
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Progress != nil {
		p.Progress = *in.Progress
	}
	in.Deadline.Apply(&p.Deadline)
}
