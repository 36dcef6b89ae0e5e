package engine

import (
	"slices"
	"sort"

	"github.com/julianstephens/dashtrack/internal/models"
)

// byRecency puts the newest record first. Records created at the same
// instant keep reverse insertion order.
func byRecency[S models.Record](items []S, _ Query, _ string) []S {
	slices.Reverse(items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Base().CreatedAt.After(items[j].Base().CreatedAt)
	})
	return items
}

// scheduleForDay keeps one day's items ordered by start time.
func scheduleForDay(items []*models.ScheduleItem, q Query, today string) []*models.ScheduleItem {
	date := q.Date
	if date == "" {
		date = today
	}
	out := make([]*models.ScheduleItem, 0, len(items))
	for _, item := range items {
		if item.Date == date {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

func byDayOfWeek(items []*models.Meal, _ Query, _ string) []*models.Meal {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DayOfWeek < items[j].DayOfWeek
	})
	return items
}
