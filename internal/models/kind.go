package models

import (
	"time"

	"github.com/julianstephens/dashtrack/internal/constants"
)

// Kind identifies one of the seven resource collections. Its value is the
// collection's path segment.
type Kind string

const (
	KindMusic    Kind = "music"
	KindTodos    Kind = "todos"
	KindProjects Kind = "projects"
	KindHabits   Kind = "habits"
	KindWorkouts Kind = "workouts"
	KindSchedule Kind = "schedule"
	KindMeals    Kind = "meals"
)

// Kinds lists every resource kind in a fixed order.
var Kinds = []Kind{KindMusic, KindTodos, KindProjects, KindHabits, KindWorkouts, KindSchedule, KindMeals}

type kindInfo struct {
	storageKey string
	label      string
}

var kindInfos = map[Kind]kindInfo{
	KindMusic:    {constants.StorageKeyMusic, "Music entry"},
	KindTodos:    {constants.StorageKeyTodos, "Todo item"},
	KindProjects: {constants.StorageKeyProjects, "Project"},
	KindHabits:   {constants.StorageKeyHabits, "Habit"},
	KindWorkouts: {constants.StorageKeyWorkouts, "Workout"},
	KindSchedule: {constants.StorageKeySchedule, "Schedule item"},
	KindMeals:    {constants.StorageKeyMeals, "Meal"},
}

// ParseKind maps a path segment to its Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := kindInfos[k]
	return k, ok
}

// StorageKey is the collection key used by persisted stores.
func (k Kind) StorageKey() string {
	return kindInfos[k].storageKey
}

// Label is the human-readable singular name used in messages.
func (k Kind) Label() string {
	if info, ok := kindInfos[k]; ok {
		return info.label
	}
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}

// Meta holds the engine-assigned fields every stored record carries.
type Meta struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Base gives generic code access to the engine-assigned fields.
func (m *Meta) Base() *Meta {
	return m
}

// Record is implemented by pointers to every stored shape.
type Record interface {
	Base() *Meta
}

// Input is implemented by every insert shape. Fields left nil are absent:
// Validate(true) accepts them and ApplyTo leaves the target untouched.
type Input[S Record] interface {
	Validate(partial bool) error
	ApplyTo(rec S)
}
