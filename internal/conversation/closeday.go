package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	"go.uber.org/zap"
)

// rateDay reads the day rating and closes the day
func (e *Engine) rateDay(ctx context.Context, ev Event, input string) error {
	score, err := strconv.Atoi(input)
	if err != nil {
		return reject(ErrInvalidInput, msgRatingNaN)
	}
	now := e.now()
	rating := &models.Rating{Key: ev.Key, Score: score, Day: models.DayOf(now)}
	if err := e.validate.Struct(rating); err != nil {
		return reject(ErrOutOfRange, msgRatingRange)
	}

	if err := e.setState(ctx, ev.Key, StateIdle); err != nil {
		return err
	}
	if err := e.send(ctx, ev.Key, msgJournalOnWay); err != nil {
		return err
	}
	return e.closeDay(ctx, ev, rating)
}

// closeDay persists the rating, delivers the journal, pushes the rating to
// the commit graph and resets habits, in that order. Journal and graph
// failures are logged and do not stop the later steps.
func (e *Engine) closeDay(ctx context.Context, ev Event, rating *models.Rating) error {
	if err := e.repos.Entries.SaveRating(ctx, rating); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	name := e.displayName(ctx, ev)
	if err := e.deliverJournal(ctx, ev.Key, name, rating.Day); err != nil {
		e.logger.Error("journal_delivery_failed",
			zap.Int64("user_key", int64(ev.Key)),
			zap.String("day", rating.Day.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
	}

	// The graph service retries for tens of seconds; a cancelled update must
	// not abandon it halfway.
	e.pushRating(context.WithoutCancel(ctx), ev.Key, name, rating)

	if err := e.repos.Habits.ResetAll(ctx, ev.Key); err != nil {
		return fmt.Errorf("failed to reset habits: %w", err)
	}
	e.logger.Info("day_closed",
		zap.Int64("user_key", int64(ev.Key)),
		zap.String("day", rating.Day.String()),
		zap.Int("rating", rating.Score),
	)
	return nil
}

func (e *Engine) deliverJournal(ctx context.Context, key models.UserKey, name string, day models.Day) error {
	if e.generator == nil {
		return errors.New("no journal generator configured")
	}
	snap, err := journal.BuildSnapshot(ctx, e.repos, key, name, day)
	if err != nil {
		return err
	}
	art, err := e.generator.Generate(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to render journal: %w", err)
	}
	if err := e.messenger.SendDocument(ctx, key, art.Filename, art.Data); err != nil {
		return fmt.Errorf("failed to send journal: %w", err)
	}
	return e.repos.Journals.Save(ctx, &models.Journal{
		Key:         key,
		DisplayName: snap.DisplayName,
		Day:         day,
		Filename:    art.Filename,
		Data:        art.Data,
	})
}

// pushRating creates the user's graph on first use, records the rating and
// shares the link when the point landed
func (e *Engine) pushRating(ctx context.Context, key models.UserKey, name string, rating *models.Rating) {
	if e.graphs == nil {
		return
	}
	log := e.logger.With(zap.Int64("user_key", int64(key)))

	_, err := e.repos.Graphs.Get(ctx, key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		res := e.graphs.CreateGraph(ctx, name)
		if res.OK() {
			link := &models.GraphLink{Key: key, DisplayName: name, GraphURL: res.URL, Day: rating.Day}
			if err := e.repos.Graphs.Save(ctx, link); err != nil {
				log.Error("failed_to_save_graph_link", zap.String("error", logger.SanitizeError(err)))
			}
		} else {
			log.Warn("graph_create_failed",
				zap.Stringer("status", res.Status),
				zap.String("reason", res.Reason),
			)
		}
	case err != nil:
		log.Error("failed_to_load_graph_link", zap.String("error", logger.SanitizeError(err)))
	}

	res := e.graphs.InsertData(ctx, name, rating.Score)
	if !res.OK() {
		log.Warn("graph_insert_failed",
			zap.Stringer("status", res.Status),
			zap.String("reason", res.Reason),
			zap.Int("attempts", res.Attempts),
		)
		return
	}
	if err := e.send(ctx, key, msgGraphLink(name, res.URL)); err != nil {
		log.Warn("failed_to_send_graph_link", zap.String("error", logger.SanitizeError(err)))
	}
}
