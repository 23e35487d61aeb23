package conversation

import (
	"context"
	"strconv"

	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"go.uber.org/zap"
)

// handleSelection reacts to inline buttons. Selections never change the
// pending state, so the day rating prompt survives mood and habit answers.
func (e *Engine) handleSelection(ctx context.Context, ev Event) error {
	if score, ok := moodScores[ev.Selection]; ok {
		mood := &models.Mood{Key: ev.Key, Emoji: ev.Selection, Score: score, Day: e.today()}
		if err := e.repos.Entries.SaveMood(ctx, mood); err != nil {
			return err
		}
		return nil
	}

	if ev.Selection == selectionNo {
		return e.send(ctx, ev.Key, msgNoWorries)
	}

	id, err := strconv.Atoi(ev.Selection)
	if err != nil {
		e.logger.Debug("unknown_selection_ignored",
			zap.Int64("user_key", int64(ev.Key)),
			zap.String("selection", logger.SanitizeMessage(ev.Selection)),
		)
		return nil
	}
	exists, err := e.repos.Habits.Exists(ctx, ev.Key, id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := e.repos.Habits.Complete(ctx, ev.Key, id, e.now()); err != nil {
		return err
	}
	return e.send(ctx, ev.Key, msgHabitDoneTick)
}
