package conversation

import (
	"context"
	"fmt"

	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"go.uber.org/zap"
)

// Slash commands understood by the engine
const (
	CommandStart        = "start"
	CommandTaskManager  = "task_manager"
	CommandNoteManager  = "note_manager"
	CommandHabitManager = "habit_manager"
	CommandState        = "state"
	CommandEndDay       = "end_day"
	selectionNo         = "no"
	selectionYesLabel   = "Yes"
	selectionNoLabel    = "No"
)

func (e *Engine) handleCommand(ctx context.Context, ev Event) error {
	switch ev.Command {
	case CommandStart:
		return e.start(ctx, ev)
	case CommandTaskManager:
		return e.messenger.SendChoices(ctx, ev.Key, msgChooseOption, taskMenu)
	case CommandNoteManager:
		return e.messenger.SendChoices(ctx, ev.Key, msgChooseOption, noteMenu)
	case CommandHabitManager:
		return e.messenger.SendChoices(ctx, ev.Key, msgChooseOption, habitMenu)
	case CommandState:
		return e.prompt(ctx, ev.Key, StateSetStatus, msgStatusPrompt)
	case CommandEndDay:
		return e.endDay(ctx, ev)
	}
	e.logger.Debug("unknown_command_ignored",
		zap.Int64("user_key", int64(ev.Key)),
		zap.String("command", logger.SanitizeMessage(ev.Command)),
	)
	return nil
}

// start greets the user, records the profile, sends the quote of the day and
// a sample journal
func (e *Engine) start(ctx context.Context, ev Event) error {
	if _, err := e.repos.Users.Upsert(ctx, ev.Key, ev.DisplayName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	if err := e.send(ctx, ev.Key, msgWelcome(ev.DisplayName)); err != nil {
		return err
	}

	if e.quotes != nil {
		quote, err := e.quotes.Today(ctx, ev.Key, e.now())
		if err != nil {
			e.logger.Warn("failed_to_pick_quote",
				zap.Int64("user_key", int64(ev.Key)),
				zap.String("error", logger.SanitizeError(err)),
			)
		} else if err := e.send(ctx, ev.Key, quote); err != nil {
			return err
		}
	}

	if err := e.send(ctx, ev.Key, msgAfterStart); err != nil {
		return err
	}
	if e.generator == nil {
		return nil
	}
	art, err := e.generator.Generate(ctx, journal.Sample(ev.Key, ev.DisplayName, e.today()))
	if err != nil {
		e.logger.Warn("failed_to_render_sample_journal",
			zap.Int64("user_key", int64(ev.Key)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil
	}
	return e.messenger.SendDocument(ctx, ev.Key, art.Filename, art.Data)
}

// endDay asks for the mood, each pending habit and finally the day rating
func (e *Engine) endDay(ctx context.Context, ev Event) error {
	if err := e.send(ctx, ev.Key, msgEndOfDay); err != nil {
		return err
	}
	if err := e.messenger.SendChoices(ctx, ev.Key, msgMoodQuestion, moodChoices); err != nil {
		return err
	}

	habits, err := e.repos.Habits.List(ctx, ev.Key)
	if err != nil {
		return err
	}
	pending, _ := models.SplitHabits(habits)
	for _, h := range pending {
		if err := e.messenger.SendChoices(ctx, ev.Key, msgHabitQuestion(h.Description), habitChoices(h.ID)); err != nil {
			return err
		}
	}

	return e.prompt(ctx, ev.Key, StateDayRating, msgRatingPrompt)
}

func habitChoices(id int) ChoiceSet {
	return ChoiceSet{
		Inline: true,
		Rows: [][]Choice{{
			{Label: selectionYesLabel, Data: fmt.Sprint(id)},
			{Label: selectionNoLabel, Data: selectionNo},
		}},
	}
}
