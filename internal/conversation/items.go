package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/daily-journal/internal/models"
)

// enterMenu runs the "enter mode" operation of a menu phrase
func (e *Engine) enterMenu(ctx context.Context, ev Event, cmd MenuCommand) error {
	switch cmd {
	case MenuAddTask:
		return e.prompt(ctx, ev.Key, StateAddTask, msgAddTaskPrompt)
	case MenuShowTasks:
		return e.showTasks(ctx, ev.Key)
	case MenuCompleteTask:
		return e.enterCompleteTask(ctx, ev.Key)
	case MenuDeleteTask:
		return e.enterDeleteTask(ctx, ev.Key)
	case MenuAddNote:
		return e.prompt(ctx, ev.Key, StateAddNote, msgAddNotePrompt)
	case MenuShowNotes:
		return e.showNotes(ctx, ev.Key)
	case MenuDeleteNote:
		return e.enterDeleteNote(ctx, ev.Key)
	case MenuAddHabit:
		return e.prompt(ctx, ev.Key, StateAddHabit, msgAddHabitPrompt)
	case MenuShowHabits:
		return e.showHabits(ctx, ev.Key)
	case MenuCompleteHabit:
		return e.enterCompleteHabit(ctx, ev.Key)
	case MenuDeleteHabit:
		return e.enterDeleteHabit(ctx, ev.Key)
	}
	return fmt.Errorf("unhandled menu command %q", cmd)
}

func (e *Engine) prompt(ctx context.Context, key models.UserKey, state State, text string) error {
	if err := e.setState(ctx, key, state); err != nil {
		return err
	}
	return e.send(ctx, key, text)
}

// done returns to idle and confirms
func (e *Engine) done(ctx context.Context, key models.UserKey, text string) error {
	return e.prompt(ctx, key, StateIdle, text)
}

func parseID(input, invalid string) (int, error) {
	id, err := strconv.Atoi(input)
	if err != nil {
		return 0, reject(ErrInvalidInput, invalid)
	}
	return id, nil
}

func (e *Engine) showTasks(ctx context.Context, key models.UserKey) error {
	tasks, err := e.repos.Tasks.ListByDay(ctx, key, e.today())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return e.send(ctx, key, msgNoTasks)
	}
	pending, completed := models.SplitTasks(tasks)
	if len(pending) > 0 {
		if err := e.send(ctx, key, titled("Action tasks🔥", taskLines(pending))); err != nil {
			return err
		}
	}
	if len(completed) > 0 {
		return e.send(ctx, key, titled("Completed tasks✅", taskLines(completed)))
	}
	return nil
}

func (e *Engine) enterCompleteTask(ctx context.Context, key models.UserKey) error {
	tasks, err := e.repos.Tasks.ListByDay(ctx, key, e.today())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return e.send(ctx, key, msgNoTasks)
	}
	pending, _ := models.SplitTasks(tasks)
	if len(pending) == 0 {
		return e.send(ctx, key, msgNoTasksLeft)
	}
	return e.prompt(ctx, key, StateCompleteTask,
		pickPrompt("Your tasks", taskLines(pending), "Enter the ID of the task you want to mark as completed.", true))
}

func (e *Engine) enterDeleteTask(ctx context.Context, key models.UserKey) error {
	tasks, err := e.repos.Tasks.ListByDay(ctx, key, e.today())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return e.send(ctx, key, msgNoTasks)
	}
	return e.prompt(ctx, key, StateDeleteTask,
		pickPrompt("Your tasks", taskLines(tasks), "Enter the ID of the task you want to delete.", false))
}

func (e *Engine) addTask(ctx context.Context, ev Event, input string) error {
	task, err := e.repos.Tasks.Create(ctx, ev.Key, input, e.now())
	if err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgTaskAdded(task.ID))
}

func (e *Engine) completeTask(ctx context.Context, ev Event, input string) error {
	id, err := parseID(input, msgBadTaskInput)
	if err != nil {
		return err
	}
	now := e.now()
	exists, err := e.repos.Tasks.Exists(ctx, ev.Key, models.DayOf(now), id)
	if err != nil {
		return err
	}
	if !exists {
		return reject(ErrNotFound, msgBadTaskID)
	}
	if err := e.repos.Tasks.Complete(ctx, ev.Key, id, now); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgTaskCompleted(id))
}

func (e *Engine) deleteTask(ctx context.Context, ev Event, input string) error {
	id, err := parseID(input, msgBadTaskInput)
	if err != nil {
		return err
	}
	day := e.today()
	exists, err := e.repos.Tasks.Exists(ctx, ev.Key, day, id)
	if err != nil {
		return err
	}
	if !exists {
		return reject(ErrNotFound, msgPickListedID)
	}
	if err := e.repos.Tasks.Delete(ctx, ev.Key, day, id); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgTaskDeleted(id))
}

func (e *Engine) showNotes(ctx context.Context, key models.UserKey) error {
	notes, err := e.repos.Notes.ListByDay(ctx, key, e.today())
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return e.send(ctx, key, msgNoNotes)
	}
	return e.send(ctx, key, titled("Today's notes📝", noteLines(notes)))
}

func (e *Engine) enterDeleteNote(ctx context.Context, key models.UserKey) error {
	notes, err := e.repos.Notes.ListByDay(ctx, key, e.today())
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return e.send(ctx, key, msgNoNotesToDelete)
	}
	return e.prompt(ctx, key, StateDeleteNote,
		pickPrompt("Your notes", noteLines(notes), "Enter the ID of the note you want to delete.", false))
}

func (e *Engine) addNote(ctx context.Context, ev Event, input string) error {
	note, err := e.repos.Notes.Create(ctx, ev.Key, input, e.now())
	if err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgNoteAdded(note.ID))
}

func (e *Engine) deleteNote(ctx context.Context, ev Event, input string) error {
	id, err := parseID(input, msgBadNoteInput)
	if err != nil {
		return err
	}
	day := e.today()
	exists, err := e.repos.Notes.Exists(ctx, ev.Key, day, id)
	if err != nil {
		return err
	}
	if !exists {
		return reject(ErrNotFound, msgPickListedID)
	}
	if err := e.repos.Notes.Delete(ctx, ev.Key, day, id); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgNoteDeleted(id))
}

func (e *Engine) showHabits(ctx context.Context, key models.UserKey) error {
	habits, err := e.repos.Habits.List(ctx, key)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		return e.send(ctx, key, msgNoHabits)
	}
	pending, completed := models.SplitHabits(habits)
	if len(pending) > 0 {
		if err := e.send(ctx, key, titled("Action Habits🔥", habitLines(pending, false))); err != nil {
			return err
		}
	}
	if len(completed) > 0 {
		return e.send(ctx, key, titled("Completed Habits✅", habitLines(completed, false)))
	}
	return nil
}

func (e *Engine) enterCompleteHabit(ctx context.Context, key models.UserKey) error {
	habits, err := e.repos.Habits.List(ctx, key)
	if err != nil {
		return err
	}
	pending, _ := models.SplitHabits(habits)
	if len(pending) == 0 {
		return e.send(ctx, key, msgNoHabitsLeft)
	}
	return e.prompt(ctx, key, StateCompleteHabit,
		pickPrompt("Your habits to complete", habitLines(pending, true), "Enter the ID of the habit you want to mark as completed.", true))
}

func (e *Engine) enterDeleteHabit(ctx context.Context, key models.UserKey) error {
	habits, err := e.repos.Habits.List(ctx, key)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		return e.send(ctx, key, msgNoHabits)
	}
	return e.prompt(ctx, key, StateDeleteHabit,
		pickPrompt("Your habits", habitLines(habits, true), "Enter the ID of the habit you want to delete.", false))
}

func (e *Engine) addHabit(ctx context.Context, ev Event, input string) error {
	if _, err := e.repos.Habits.Create(ctx, ev.Key, input, e.now()); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgHabitAdded)
}

func (e *Engine) completeHabit(ctx context.Context, ev Event, input string) error {
	id, err := parseID(input, msgBadHabitInput)
	if err != nil {
		return err
	}
	exists, err := e.repos.Habits.Exists(ctx, ev.Key, id)
	if err != nil {
		return err
	}
	if !exists {
		return reject(ErrNotFound, msgBadHabitID)
	}
	if err := e.repos.Habits.Complete(ctx, ev.Key, id, e.now()); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgHabitCompleted(id))
}

func (e *Engine) deleteHabit(ctx context.Context, ev Event, input string) error {
	id, err := parseID(input, msgBadHabitInput)
	if err != nil {
		return err
	}
	exists, err := e.repos.Habits.Exists(ctx, ev.Key, id)
	if err != nil {
		return err
	}
	if !exists {
		return reject(ErrNotFound, msgBadHabitID)
	}
	if err := e.repos.Habits.Delete(ctx, ev.Key, id); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgHabitDeleted(id))
}

func (e *Engine) setStatus(ctx context.Context, ev Event, input string) error {
	status := strings.ReplaceAll(input, "\n", " ")
	if err := e.repos.Users.SetFreeTextStatus(ctx, ev.Key, status); err != nil {
		return err
	}
	return e.done(ctx, ev.Key, msgStatusSet)
}
