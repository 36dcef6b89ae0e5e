package models

import "github.com/julianstephens/dashtrack/internal/validation"

// Todo is a single to-do list entry.
type Todo struct {
	Meta
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TodoInput is the insert shape for Todo.
type TodoInput struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// NewTodo returns a Todo carrying the creation defaults.
func NewTodo() *Todo {
	return &Todo{}
}

func (in TodoInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.String("text", in.Text, true)
	return c.Err()
}

func (in TodoInput) ApplyTo(t *Todo) {
	if in.Text != nil {
		t.Text = *in.Text
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
}
