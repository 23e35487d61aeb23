package models

import "time"

// Quote is the day's quote; one per user and day
type Quote struct {
	Key  UserKey `json:"user_key"`
	Text string  `json:"text"`
	Day  Day     `json:"day"`
}

// Mood is the day's mood emoji; one per user and day
type Mood struct {
	Key   UserKey `json:"user_key"`
	Emoji string  `json:"emoji"`
	Score int     `json:"score"`
	Day   Day     `json:"day"`
}

// Rating is the user's 1-10 rating of the day; one per user and day
type Rating struct {
	Key   UserKey `json:"user_key"`
	Score int     `json:"score" validate:"min=1,max=10"`
	Day   Day     `json:"day"`
}

// Journal is a generated day artifact
type Journal struct {
	Key         UserKey   `json:"user_key"`
	DisplayName string    `json:"display_name"`
	Day         Day       `json:"day"`
	Filename    string    `json:"filename"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// DaySnapshot is everything recorded for a user on one day, as consumed by the
// artifact generator and the day endpoint of the admin API
type DaySnapshot struct {
	Key            UserKey  `json:"user_key"`
	DisplayName    string   `json:"display_name"`
	Day            Day      `json:"day"`
	Tasks          []*Task  `json:"tasks"`
	Habits         []*Habit `json:"habits"`
	Notes          []*Note  `json:"notes"`
	Quote          *Quote   `json:"quote,omitempty"`
	Mood           *Mood    `json:"mood,omitempty"`
	Rating         *Rating  `json:"rating,omitempty"`
	FreeTextStatus *string  `json:"free_text_status,omitempty"`
}
