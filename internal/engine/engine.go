// Package engine exposes the typed list/create/update/delete operations for
// every resource kind on top of any storage.Provider.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/logger"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

// Engine holds one collection per resource kind over a shared provider.
type Engine struct {
	store storage.Provider
	now   func() time.Time
	newID func() (string, error)

	Music    *Collection[*models.MusicEntry, models.MusicEntryInput]
	Todos    *Collection[*models.Todo, models.TodoInput]
	Projects *Collection[*models.Project, models.ProjectInput]
	Habits   *Collection[*models.Habit, models.HabitInput]
	Workouts *Collection[*models.Workout, models.WorkoutInput]
	Schedule *Collection[*models.ScheduleItem, models.ScheduleItemInput]
	Meals    *Collection[*models.Meal, models.MealInput]
}

type Option func(*Engine)

// WithClock replaces the wall clock used for createdAt and the default
// schedule date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the UUIDv7 id source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(e *Engine) { e.newID = fn }
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New builds an engine over store. The store must already be initialized
// or loaded.
func New(store storage.Provider, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		now:   time.Now,
		newID: newUUID,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Music = newCollection[*models.MusicEntry, models.MusicEntryInput](e, models.KindMusic, models.NewMusicEntry, byRecency[*models.MusicEntry])
	e.Todos = newCollection[*models.Todo, models.TodoInput](e, models.KindTodos, models.NewTodo, byRecency[*models.Todo])
	e.Projects = newCollection[*models.Project, models.ProjectInput](e, models.KindProjects, models.NewProject, byRecency[*models.Project])
	e.Habits = newCollection[*models.Habit, models.HabitInput](e, models.KindHabits, models.NewHabit, byRecency[*models.Habit])
	e.Workouts = newCollection[*models.Workout, models.WorkoutInput](e, models.KindWorkouts, models.NewWorkout, byRecency[*models.Workout])
	e.Schedule = newCollection[*models.ScheduleItem, models.ScheduleItemInput](e, models.KindSchedule, models.NewScheduleItem, scheduleForDay)
	e.Meals = newCollection[*models.Meal, models.MealInput](e, models.KindMeals, models.NewMeal, byDayOfWeek)
	return e
}

// Store returns the provider the engine writes to.
func (e *Engine) Store() storage.Provider {
	return e.store
}

// Today is the engine clock's current date in YYYY-MM-DD form.
func (e *Engine) Today() string {
	return e.now().Format(constants.DateFormat)
}

// Reset removes every record of every kind and owner.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.Reset(ctx); err != nil {
		return e.fail("reset", "", err)
	}
	return nil
}

// Verify checks every collection and returns the record count per kind.
// It stops at the first invalid record.
func (e *Engine) Verify(ctx context.Context) (map[models.Kind]int, error) {
	checks := []struct {
		kind   models.Kind
		verify func(context.Context) (int, error)
	}{
		{models.KindMusic, e.Music.Verify},
		{models.KindTodos, e.Todos.Verify},
		{models.KindProjects, e.Projects.Verify},
		{models.KindHabits, e.Habits.Verify},
		{models.KindWorkouts, e.Workouts.Verify},
		{models.KindSchedule, e.Schedule.Verify},
		{models.KindMeals, e.Meals.Verify},
	}

	counts := make(map[models.Kind]int, len(checks))
	for _, check := range checks {
		n, err := check.verify(ctx)
		if err != nil {
			return counts, err
		}
		counts[check.kind] = n
	}
	return counts, nil
}

// fail logs a provider fault and converts it to an engine failure. Taxonomy
// errors pass through unlogged.
func (e *Engine) fail(op string, kind models.Kind, err error) error {
	wrapped := errs.Engine(op, err)
	if wrapped != err {
		logger.Error("Storage operation failed", "op", op, "kind", string(kind), "error", err)
	}
	return wrapped
}
