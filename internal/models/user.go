package models

import (
	"strconv"
	"time"
)

// UserKey identifies a user; it is the chat identifier of the chat transport
type UserKey int64

// String implements fmt.Stringer
func (k UserKey) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// ParseUserKey parses a decimal user key
func ParseUserKey(s string) (UserKey, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserKey(v), nil
}

// UserProfile is the per-user profile row
type UserProfile struct {
	Key            UserKey   `json:"user_key"`
	DisplayName    string    `json:"display_name"`
	PendingState   string    `json:"pending_state,omitempty"`
	GraphURL       *string   `json:"graph_url,omitempty"`
	FreeTextStatus *string   `json:"free_text_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GraphLink records the creation of a user's commit graph
type GraphLink struct {
	Key         UserKey   `json:"user_key"`
	DisplayName string    `json:"display_name"`
	GraphURL    string    `json:"graph_url"`
	Day         Day       `json:"day"`
	CreatedAt   time.Time `json:"created_at"`
}
