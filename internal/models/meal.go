package models

import "github.com/julianstephens/dashtrack/internal/validation"

const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
)

// MealTypes lists the accepted meal slots.
var MealTypes = []string{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// Meal is one planned meal. Several meals may share a (DayOfWeek, MealType)
// slot; readers take the first one listed.
type Meal struct {
	Meta
	DayOfWeek int    `json:"dayOfWeek"` // 0-6, Sunday first
	MealType  string `json:"mealType"`
	Name      string `json:"name"`
}

// MealInput is the insert shape for Meal.
type MealInput struct {
	DayOfWeek *int    `json:"dayOfWeek,omitempty"`
	MealType  *string `json:"mealType,omitempty"`
	Name      *string `json:"name,omitempty"`
}

// NewMeal returns a Meal carrying the creation defaults.
func NewMeal() *Meal {
	return &Meal{}
}

func (in MealInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.IntRange("dayOfWeek", in.DayOfWeek, 0, 6, true)
	c.Enum("mealType", in.MealType, MealTypes, true)
	c.String("name", in.Name, true)
	return c.Err()
}

func (in MealInput) ApplyTo(m *Meal) {
	if in.DayOfWeek != nil {
		m.DayOfWeek = *in.DayOfWeek
	}
	if in.MealType != nil {
		m.MealType = *in.MealType
	}
	if in.Name != nil {
		m.Name = *in.Name
	}
}
