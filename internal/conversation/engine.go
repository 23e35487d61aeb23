// Package conversation interprets chat events against each user's pending
// state: menu phrases switch modes, free text is read by the active mode, slash
// commands and inline selections drive the end-of-day flow.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/daily-journal/internal/commit"
	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/benvon/daily-journal/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// GraphClient is the part of the commit client the engine needs
type GraphClient interface {
	CreateGraph(ctx context.Context, displayName string) commit.Result
	InsertData(ctx context.Context, displayName string, value int) commit.Result
}

var _ GraphClient = (*commit.Client)(nil)

// QuoteSource picks and records the quote of the day
type QuoteSource interface {
	Today(ctx context.Context, key models.UserKey, now time.Time) (string, error)
}

// Config wires an Engine. States defaults to the profile-backed store and Now
// to time.Now; Graphs and Quotes may be nil to disable those side effects.
type Config struct {
	Repos     *database.Repositories
	States    StateStore
	Messenger Messenger
	Generator journal.Generator
	Graphs    GraphClient
	Quotes    QuoteSource
	Logger    *zap.Logger
	Now       func() time.Time
}

type textHandler func(ctx context.Context, ev Event, input string) error

// Engine is the per-user conversation state machine
type Engine struct {
	repos     *database.Repositories
	states    StateStore
	messenger Messenger
	generator journal.Generator
	graphs    GraphClient
	quotes    QuoteSource
	logger    *zap.Logger
	now       func() time.Time
	validate  *validator.Validate
	locks     *KeyedMutex
	handlers  map[State]textHandler
}

// NewEngine creates an engine
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		repos:     cfg.Repos,
		states:    cfg.States,
		messenger: cfg.Messenger,
		generator: cfg.Generator,
		graphs:    cfg.Graphs,
		quotes:    cfg.Quotes,
		logger:    logger.OrNop(cfg.Logger),
		now:       cfg.Now,
		validate:  validation.Validate,
		locks:     NewKeyedMutex(),
	}
	if e.states == nil {
		e.states = NewProfileStateStore(cfg.Repos.Users)
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.handlers = map[State]textHandler{
		StateAddTask:       e.addTask,
		StateCompleteTask:  e.completeTask,
		StateDeleteTask:    e.deleteTask,
		StateAddNote:       e.addNote,
		StateDeleteNote:    e.deleteNote,
		StateAddHabit:      e.addHabit,
		StateCompleteHabit: e.completeHabit,
		StateDeleteHabit:   e.deleteHabit,
		StateDayRating:     e.rateDay,
		StateSetStatus:     e.setStatus,
	}
	return e
}

// Handle processes one event. Events of the same user never interleave.
// Validation failures are answered in chat and are not errors; a returned error
// means a store or transport failure the user was told about.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	unlock := e.locks.Lock(ev.Key)
	defer unlock()

	var err error
	switch {
	case ev.Command != "":
		err = e.handleCommand(ctx, ev)
	case ev.Selection != "":
		err = e.handleSelection(ctx, ev)
	default:
		err = e.handleText(ctx, ev)
	}
	return e.fail(ctx, ev, err)
}

func (e *Engine) handleText(ctx context.Context, ev Event) error {
	if cmd, ok := MatchMenuCommand(ev.Text); ok {
		return e.enterMenu(ctx, ev, cmd)
	}

	state, err := e.states.Get(ctx, ev.Key)
	if err != nil {
		e.logger.Warn("failed_to_read_conversation_state",
			zap.Int64("user_key", int64(ev.Key)),
			zap.String("error", logger.SanitizeError(err)),
		)
		state = StateIdle
	}

	handler, ok := e.handlers[state]
	if !ok {
		return e.send(ctx, ev.Key, msgChooseFirst)
	}

	err = handler(ctx, ev, validation.SanitizeText(ev.Text))
	var rej *rejection
	if errors.As(err, &rej) {
		e.logger.Debug("conversation_input_rejected",
			zap.Int64("user_key", int64(ev.Key)),
			zap.Stringer("state", state),
			zap.String("input", logger.SanitizeMessage(ev.Text)),
			zap.String("reason", rej.kind.Error()),
		)
		if err := e.setState(ctx, ev.Key, state); err != nil {
			return err
		}
		return e.send(ctx, ev.Key, rej.reply)
	}
	return err
}

// fail logs err, tells the user and passes err on
func (e *Engine) fail(ctx context.Context, ev Event, err error) error {
	if err == nil {
		return nil
	}
	e.logger.Error("conversation_event_failed",
		zap.Int64("user_key", int64(ev.Key)),
		zap.String("command", ev.Command),
		zap.String("error", logger.SanitizeError(err)),
	)
	if sendErr := e.messenger.SendText(ctx, ev.Key, msgSomethingWent); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (e *Engine) setState(ctx context.Context, key models.UserKey, state State) error {
	if err := e.states.Set(ctx, key, state); err != nil {
		return fmt.Errorf("failed to set conversation state: %w", err)
	}
	e.logger.Debug("conversation_state_set",
		zap.Int64("user_key", int64(key)),
		zap.Stringer("state", state),
	)
	return nil
}

func (e *Engine) send(ctx context.Context, key models.UserKey, text string) error {
	if err := e.messenger.SendText(ctx, key, text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (e *Engine) today() models.Day {
	return models.DayOf(e.now())
}

// displayName prefers the name on the event and falls back to the profile
func (e *Engine) displayName(ctx context.Context, ev Event) string {
	if ev.DisplayName != "" {
		return ev.DisplayName
	}
	if user, err := e.repos.Users.Get(ctx, ev.Key); err == nil {
		return user.DisplayName
	}
	return ""
}
