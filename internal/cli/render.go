package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/dashtrack/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// columns lists the wire fields shown for each kind, id last.
var columns = map[models.Kind][]string{
	models.KindMusic:    {"artist", "album", "rating", "listenedDate"},
	models.KindTodos:    {"text", "completed"},
	models.KindProjects: {"name", "status", "progress", "deadline"},
	models.KindHabits:   {"name", "streak", "weekProgress"},
	models.KindWorkouts: {"type", "duration", "calories", "workoutDate"},
	models.KindSchedule: {"time", "activity", "duration", "date"},
	models.KindMeals:    {"dayOfWeek", "mealType", "name"},
}

func renderTable(kind models.Kind, rows []map[string]any) string {
	if len(rows) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No %s yet.", kind))
	}

	fields := append(append([]string{}, columns[kind]...), "id")
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(fields...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range rows {
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = formatCell(f, r[f])
		}
		t.Row(cells...)
	}
	return t.Render()
}

func formatCell(field string, v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case bool:
		if val {
			return "✓"
		}
		return "·"
	case float64:
		if field == "dayOfWeek" && val >= 0 && int(val) < len(weekdayNames) {
			return weekdayNames[int(val)]
		}
		if field == "progress" {
			return strconv.FormatFloat(val, 'f', -1, 64) + "%"
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		var b strings.Builder
		for _, item := range val {
			b.WriteString(formatCell("", item))
		}
		return b.String()
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
