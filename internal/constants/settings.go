package constants

// Storage keys name each resource kind's collection inside a persisted store.
// They match the keys the browser client used in local storage so exported
// documents stay interchangeable.
const (
	StorageKeyMusic    = "music-entries"
	StorageKeyTodos    = "todo-items"
	StorageKeyProjects = "projects"
	StorageKeyHabits   = "habits"
	StorageKeyWorkouts = "workouts"
	StorageKeySchedule = "schedule-items"
	StorageKeyMeals    = "meals"
)

// Resource defaults applied at creation time.
const (
	DefaultProjectStatus   = "planning"
	DefaultProjectProgress = 0
	DefaultHabitStreak     = 0
	DaysPerWeek            = 7
)
