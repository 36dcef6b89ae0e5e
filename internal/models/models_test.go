package models

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	errs "github.com/julianstephens/dashtrack/internal/errors"
)

func invalidFields(t *testing.T, err error) []string {
	t.Helper()
	var invalid *errs.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %T: %v", err, err)
	}
	return invalid.FieldNames()
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, ok)
		}
		if k.StorageKey() == "" {
			t.Errorf("%s has no storage key", k)
		}
	}
	if _, ok := ParseKind("budget"); ok {
		t.Error("ParseKind(budget) should fail")
	}
	if KindSchedule.StorageKey() != "schedule-items" {
		t.Errorf("schedule storage key = %q", KindSchedule.StorageKey())
	}
}

func TestDecodeInput_TypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"string rating", `{"artist":"a","album":"b","rating":"five","listenedDate":"2024-01-01"}`, "rating"},
		{"fractional rating", `{"artist":"a","album":"b","rating":4.5,"listenedDate":"2024-01-01"}`, "rating"},
		{"not an object", `[1,2,3]`, "body"},
		{"malformed", `{"artist":`, "body"},
		{"trailing data", `{"artist":"a"} {}`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInput[MusicEntryInput]([]byte(tt.body))
			if err == nil {
				t.Fatal("expected decode error")
			}
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if got := invalidFields(t, err); !slices.Equal(got, []string{tt.field}) {
				t.Errorf("fields = %v, want [%s]", got, tt.field)
			}
		})
	}
}

func TestDecodeInput_WeekProgressElement(t *testing.T) {
	_, err := DecodeInput[HabitInput]([]byte(`{"name":"Read","weekProgress":[true,"no"]}`))
	if got := invalidFields(t, err); !slices.Equal(got, []string{"weekProgress"}) {
		t.Errorf("fields = %v, want [weekProgress]", got)
	}
}

func TestDecodeInput_IgnoresEngineFields(t *testing.T) {
	in, err := DecodeInput[TodoInput]([]byte(`{"text":"Buy milk","id":"x","ownerId":"someone-else","createdAt":"2020-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("DecodeInput() error = %v", err)
	}
	if in.Text == nil || *in.Text != "Buy milk" {
		t.Errorf("Text = %v", in.Text)
	}
}

func TestDecodeInput_EmptyBody(t *testing.T) {
	in, err := DecodeInput[TodoInput](nil)
	if err != nil {
		t.Fatalf("DecodeInput(nil) error = %v", err)
	}
	if in.Text != nil || in.Completed != nil {
		t.Error("expected empty input")
	}
}

func TestNullable(t *testing.T) {
	var in ProjectInput
	if err := json.Unmarshal([]byte(`{"description":null}`), &in); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !in.Description.Set || in.Description.Valid {
		t.Errorf("null description decoded as %+v", in.Description)
	}
	if in.Deadline.Set {
		t.Error("absent deadline should not be set")
	}

	desc := "old"
	deadline := "2024-06-01"
	p := &Project{Description: &desc, Deadline: &deadline}
	in.ApplyTo(p)
	if p.Description != nil {
		t.Error("explicit null should clear description")
	}
	if p.Deadline == nil || *p.Deadline != "2024-06-01" {
		t.Error("absent deadline should be untouched")
	}

	out, err := json.Marshal(ProjectInput{Deadline: Some("2024-07-01")})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"deadline":"2024-07-01"}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestDefaults(t *testing.T) {
	h := NewHabit()
	if h.Streak != 0 || len(h.WeekProgress) != 7 || slices.Contains(h.WeekProgress, true) {
		t.Errorf("NewHabit() = %+v", h)
	}

	p := NewProject()
	if p.Status != ProjectStatusPlanning || p.Progress != 0 {
		t.Errorf("NewProject() = %+v", p)
	}

	w := NewWorkout()
	if w.Calories != nil {
		t.Error("workout calories should default to null")
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v, ok := raw["calories"]; !ok || v != nil {
		t.Errorf("calories = %v, want explicit null", v)
	}
	for _, key := range []string{"id", "ownerId", "createdAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("stored workout JSON missing %q", key)
		}
	}
}

func TestValidate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	tests := []struct {
		name    string
		input   interface{ Validate(bool) error }
		partial bool
		fields  []string
	}{
		{"todo ok", TodoInput{Text: str("Call mom")}, false, nil},
		{"todo missing text", TodoInput{}, false, []string{"text"}},
		{"todo empty partial", TodoInput{}, true, nil},
		{"project bad status", ProjectInput{Name: str("Site"), Status: str("active")}, false, []string{"status"}},
		{"project progress out of range", ProjectInput{Progress: num(120)}, true, []string{"progress"}},
		{"project bad deadline", ProjectInput{Name: str("Site"), Deadline: Some("next week")}, false, []string{"deadline"}},
		{"project null deadline", ProjectInput{Name: str("Site"), Deadline: Null[string]()}, false, nil},
		{"habit short week", HabitInput{Name: str("Run"), WeekProgress: []bool{true}}, false, []string{"weekProgress"}},
		{"habit negative streak", HabitInput{Streak: num(-2)}, true, []string{"streak"}},
		{"workout zero duration", WorkoutInput{Type: str("Run"), Duration: num(0), WorkoutDate: str("2024-01-01")}, false, []string{"duration"}},
		{"workout negative calories", WorkoutInput{Calories: Some(-5)}, true, []string{"calories"}},
		{"schedule bad time", ScheduleItemInput{Time: str("7:5"), Activity: str("Gym"), Duration: num(30), Date: str("2024-01-01")}, false, []string{"time"}},
		{"meal bad slot", MealInput{DayOfWeek: num(7), MealType: str("brunch"), Name: str("Eggs")}, false, []string{"dayOfWeek", "mealType"}},
		{"music rating 6", MusicEntryInput{Artist: str("a"), Album: str("b"), Rating: num(6), ListenedDate: str("2024-01-01")}, false, []string{"rating"}},
		{"music rating 5", MusicEntryInput{Artist: str("a"), Album: str("b"), Rating: num(5), ListenedDate: str("2024-01-01")}, false, nil},
		{"music missing all", MusicEntryInput{}, false, []string{"artist", "album", "rating", "listenedDate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate(tt.partial)
			if tt.fields == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if got := invalidFields(t, err); !slices.Equal(got, tt.fields) {
				t.Errorf("fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestHabitApplyCopiesWeekProgress(t *testing.T) {
	week := []bool{true, false, true, false, true, false, true}
	h := NewHabit()
	HabitInput{WeekProgress: week}.ApplyTo(h)

	week[0] = false
	if !h.WeekProgress[0] {
		t.Error("ApplyTo should not alias the caller's slice")
	}
}
