package report

import (
	"time"

	"github.com/benvon/daily-journal/internal/models"
)

// Window is an inclusive range of days
type Window struct {
	Start models.Day `json:"start"`
	End   models.Day `json:"end"`
}

// WeekOf returns the window from the most recent Sunday on or before end up to end
func WeekOf(end models.Day) Window {
	offset := int(end.Weekday()-time.Sunday+7) % 7
	return Window{Start: end.AddDays(-offset), End: end}
}

// Contains reports whether day falls inside the window
func (w Window) Contains(day models.Day) bool {
	return !day.Before(w.Start) && !w.End.Before(day)
}
