package models

// CounterBucket is the per-user, per-day aggregate row behind sequence IDs and
// weekly reports. Fields stay zero (MoodScore nil) until first written.
type CounterBucket struct {
	Key             UserKey `json:"user_key"`
	Day             Day     `json:"day"`
	CompletedTasks  int     `json:"completed_tasks"`
	TaskCounter     int     `json:"task_counter"`
	NoteCounter     int     `json:"note_counter"`
	CompletedHabits int     `json:"completed_habits"`
	MoodScore       *int    `json:"mood_score,omitempty"`
}

// CounterDelta names the single counter a mutation increments
type CounterDelta string

const (
	DeltaTaskCreated    CounterDelta = "task_created"
	DeltaNoteCreated    CounterDelta = "note_created"
	DeltaTaskCompleted  CounterDelta = "task_completed"
	DeltaHabitCompleted CounterDelta = "habit_completed"
)

// Column returns the bucket column incremented by the delta, or "" if unknown
func (d CounterDelta) Column() string {
	switch d {
	case DeltaTaskCreated:
		return "task_counter"
	case DeltaNoteCreated:
		return "note_counter"
	case DeltaTaskCompleted:
		return "completed_tasks"
	case DeltaHabitCompleted:
		return "completed_habits"
	default:
		return ""
	}
}

// Apply increments the matching field of b in place
func (d CounterDelta) Apply(b *CounterBucket) bool {
	switch d {
	case DeltaTaskCreated:
		b.TaskCounter++
	case DeltaNoteCreated:
		b.NoteCounter++
	case DeltaTaskCompleted:
		b.CompletedTasks++
	case DeltaHabitCompleted:
		b.CompletedHabits++
	default:
		return false
	}
	return true
}
