package models

// ItemKind distinguishes the day-scoped item collections
type ItemKind string

const (
	ItemKindTask ItemKind = "task"
	ItemKindNote ItemKind = "note"
)

// Task is a day-scoped to-do entry. ID is the per-day sequence number.
type Task struct {
	ID          int     `json:"id"`
	Key         UserKey `json:"user_key"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"` // HH:MM
	Day         Day     `json:"day"`
}

// Note is a day-scoped free-text entry
type Note struct {
	ID        int     `json:"id"`
	Key       UserKey `json:"user_key"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"` // HH:MM
	Day       Day     `json:"day"`
}

// Habit is a recurring item. Its ID comes from a per-user counter that ignores days.
type Habit struct {
	ID          int     `json:"id"`
	Key         UserKey `json:"user_key"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"` // HH:MM
	Day         Day     `json:"day"`                    // day the habit was added
}

// SplitTasks partitions tasks into pending and completed, keeping order
func SplitTasks(tasks []*Task) (pending, completed []*Task) {
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

// SplitHabits partitions habits into pending and completed, keeping order
func SplitHabits(habits []*Habit) (pending, completed []*Habit) {
	for _, h := range habits {
		if h.Completed {
			completed = append(completed, h)
		} else {
			pending = append(pending, h)
		}
	}
	return pending, completed
}
