package conversation

import (
	"context"
	"fmt"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/models"
)

// State is the pending intent that decides how the next free-text message is read
type State int

const (
	StateIdle State = iota
	StateAddTask
	StateCompleteTask
	StateDeleteTask
	StateAddNote
	StateDeleteNote
	StateAddHabit
	StateCompleteHabit
	StateDeleteHabit
	StateDayRating
	StateSetStatus
)

var stateTokens = map[State]string{
	StateIdle:          "",
	StateAddTask:       "add_task",
	StateCompleteTask:  "complete_task",
	StateDeleteTask:    "delete_task",
	StateAddNote:       "add_note",
	StateDeleteNote:    "delete_note",
	StateAddHabit:      "add_habit",
	StateCompleteHabit: "complete_habit",
	StateDeleteHabit:   "delete_habit",
	StateDayRating:     "day_rating",
	StateSetStatus:     "set_state",
}

// Token returns the stored form of the state; idle is the empty token
func (s State) Token() string {
	return stateTokens[s]
}

func (s State) String() string {
	if s == StateIdle {
		return "idle"
	}
	if tok, ok := stateTokens[s]; ok {
		return tok
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState maps a stored token back to a State. "idle" and "" both mean idle.
func ParseState(token string) (State, error) {
	if token == "" || token == "idle" {
		return StateIdle, nil
	}
	for s, tok := range stateTokens {
		if tok == token {
			return s, nil
		}
	}
	return StateIdle, fmt.Errorf("unknown conversation state %q", token)
}

// StateStore persists the pending state per user
type StateStore interface {
	Get(ctx context.Context, key models.UserKey) (State, error)
	Set(ctx context.Context, key models.UserKey, state State) error
}

// ProfileStateStore keeps the state token on the user profile
type ProfileStateStore struct {
	users database.UserRepositoryInterface
}

// NewProfileStateStore creates a state store backed by the user repository
func NewProfileStateStore(users database.UserRepositoryInterface) *ProfileStateStore {
	return &ProfileStateStore{users: users}
}

// Get returns the stored state; unknown tokens read as idle with an error
func (s *ProfileStateStore) Get(ctx context.Context, key models.UserKey) (State, error) {
	token, err := s.users.GetPendingState(ctx, key)
	if err != nil {
		return StateIdle, err
	}
	return ParseState(token)
}

// Set stores the state token
func (s *ProfileStateStore) Set(ctx context.Context, key models.UserKey, state State) error {
	return s.users.SetPendingState(ctx, key, state.Token())
}

var _ StateStore = (*ProfileStateStore)(nil)
