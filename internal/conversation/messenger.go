package conversation

import (
	"context"

	"github.com/benvon/daily-journal/internal/models"
)

// Choice is one button; Data is what comes back as the selection
type Choice struct {
	Label string
	Data  string
}

// ChoiceSet is a grid of buttons. Inline buttons answer with a selection;
// menu buttons send their label back as text.
type ChoiceSet struct {
	Inline bool
	Rows   [][]Choice
}

// Messenger is the outbound side of the chat transport
type Messenger interface {
	SendText(ctx context.Context, key models.UserKey, text string) error
	SendDocument(ctx context.Context, key models.UserKey, filename string, data []byte) error
	SendChoices(ctx context.Context, key models.UserKey, text string, choices ChoiceSet) error
}

// Event is one inbound chat event. Exactly one of Command, Selection and Text
// is meaningful: Command for slash commands (without the slash), Selection for
// inline button data, Text otherwise.
type Event struct {
	Key         models.UserKey
	DisplayName string
	Command     string
	Selection   string
	Text        string
}
