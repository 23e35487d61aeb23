package conversation

import (
	"fmt"
	"strings"

	"github.com/benvon/daily-journal/internal/models"
)

const divider = "__________________________"

const (
	msgChooseFirst   = "Do not type yet!\nFirst choose an option from menu"
	msgChooseOption  = "Choose an option from the menu:"
	msgSomethingWent = "Something went wrong on our side. Please try again in a moment."

	msgAddTaskPrompt   = "Please write the task you want to add."
	msgNoTasks         = "You do not have any tasks yet!"
	msgNoTasksLeft     = "You do not have any tasks to complete try adding tasks"
	msgBadTaskInput    = "Invalid input. Please enter a valid task ID number."
	msgBadTaskID       = "Invalid task ID. Please choose a valid ID from the list👆🏿"
	msgPickListedID    = "Please choose a valid ID from the list👆🏿"
	msgAddNotePrompt   = "Please write the note of the day."
	msgNoNotes         = "You do not have any notes!"
	msgNoNotesToDelete = "No notes found."
	msgBadNoteInput    = "Invalid input. Please enter a valid note ID number."
	msgAddHabitPrompt  = "Please write the habit you want to track."
	msgHabitAdded      = "New Habit was added💪🏿!"
	msgNoHabits        = "You do not have any habits yet!"
	msgNoHabitsLeft    = "You do not have any habits to complete!"
	msgBadHabitInput   = "Invalid input. Please enter a valid habit ID number."
	msgBadHabitID      = "Invalid habit ID. Please choose a valid ID from the list👆🏿"

	msgStatusPrompt = "Define your current location and activities🌍!\n\nFor example:\nRussia, Orenburg, Learning IT, Online University Classes"
	msgStatusSet    = "Your temporary state was set!\nYou can change it anytime with /state"

	msgEndOfDay      = "It's the end of the day!\nLet's sum up✍️..."
	msgMoodQuestion  = "How do you feel today?"
	msgRatingPrompt  = "How do you rate your day from 1 to 10?"
	msgRatingNaN     = "Please enter a NUMBER between 1 and 10."
	msgRatingRange   = "Please enter a rating between 1 and 10."
	msgJournalOnWay  = "Wait, your Journal is on the way..."
	msgNoWorries     = "No worries, tomorrow is a new opportunity. You got this💪🏿"
	msgHabitDoneTick = "The habit completed✅"

	msgAfterStart = "After you can try: /end_day to complete your day😌\nAnd to receive Your Daily Journal✨\nSimilar to this one👇🏿!"
)

func msgWelcome(name string) string {
	return fmt.Sprintf("Hi %s! 👋\n"+
		"Welcome to the Journaling bot!\n"+
		"I can help you with daily Journaling✨\n\n"+
		"Try:\n"+
		"- /task_manager to work with tasks✅\n"+
		"- /note_manager to write your notes📝\n"+
		"- /habit_manager to track habits🎯\n"+
		"- /state to set your current location and activities🌍\n", name)
}

func msgTaskAdded(id int) string { return fmt.Sprintf("Task №:%d was added!", id) }
func msgTaskCompleted(id int) string {
	return fmt.Sprintf("The task №:%d has been marked as completed✅", id)
}
func msgTaskDeleted(id int) string { return fmt.Sprintf("The task №:%d has been removed.", id) }
func msgNoteAdded(id int) string   { return fmt.Sprintf("Note №:%d was added.", id) }
func msgNoteDeleted(id int) string { return fmt.Sprintf("The note №:%d has been removed!", id) }
func msgHabitCompleted(id int) string {
	return fmt.Sprintf("The habit No.%d has been marked as completed✅", id)
}
func msgHabitDeleted(id int) string { return fmt.Sprintf("The habit No.%d has been removed!", id) }

func msgHabitQuestion(description string) string {
	return fmt.Sprintf("Have you attended or done %s?", description)
}

func msgGraphLink(name, url string) string {
	return fmt.Sprintf("🔗 %s's Commitment Table: %s", name, url)
}

func titled(title string, lines []string) string {
	return title + ":\n" + divider + "\n" + strings.Join(lines, "\n")
}

func taskLines(tasks []*models.Task) []string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, fmt.Sprintf("%d. %s", t.ID, t.Description))
	}
	return lines
}

func noteLines(notes []*models.Note) []string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%d. %s", n.ID, n.Content))
	}
	return lines
}

func habitLines(habits []*models.Habit, withID bool) []string {
	lines := make([]string, 0, len(habits))
	for _, h := range habits {
		if withID {
			lines = append(lines, fmt.Sprintf("%d. %s", h.ID, h.Description))
		} else {
			lines = append(lines, "● "+h.Description)
		}
	}
	return lines
}

// pickPrompt lists items and asks for an id; completing prompts carry a divider
func pickPrompt(header string, lines []string, question string, divided bool) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(":\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
	if divided {
		sb.WriteString(divider)
		sb.WriteString("\n")
	}
	sb.WriteString(question)
	return sb.String()
}
