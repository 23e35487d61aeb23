package conversation

import (
	"strings"
	"unicode/utf8"
)

// MenuCommand is a canonical menu phrase
type MenuCommand string

const (
	MenuAddNote       MenuCommand = "add note"
	MenuShowNotes     MenuCommand = "show notes"
	MenuDeleteNote    MenuCommand = "delete note"
	MenuAddTask       MenuCommand = "add task"
	MenuShowTasks     MenuCommand = "show tasks"
	MenuCompleteTask  MenuCommand = "complete task"
	MenuDeleteTask    MenuCommand = "delete task"
	MenuAddHabit      MenuCommand = "add habit"
	MenuShowHabits    MenuCommand = "show habits"
	MenuCompleteHabit MenuCommand = "complete habit"
	MenuDeleteHabit   MenuCommand = "delete habit"
)

var menuCommands = map[MenuCommand]bool{
	MenuAddNote: true, MenuShowNotes: true, MenuDeleteNote: true,
	MenuAddTask: true, MenuShowTasks: true, MenuCompleteTask: true, MenuDeleteTask: true,
	MenuAddHabit: true, MenuShowHabits: true, MenuCompleteHabit: true, MenuDeleteHabit: true,
}

// MatchMenuCommand recognizes a menu button label. Labels wrap the phrase in
// one emoji on each side, so the first and last runes are dropped before the
// case-insensitive comparison.
func MatchMenuCommand(text string) (MenuCommand, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if utf8.RuneCountInString(s) < 2 {
		return "", false
	}
	_, first := utf8.DecodeRuneInString(s)
	_, last := utf8.DecodeLastRuneInString(s)
	cmd := MenuCommand(s[first : len(s)-last])
	if menuCommands[cmd] {
		return cmd, true
	}
	return "", false
}

func menuRows(labels ...string) ChoiceSet {
	rows := make([][]Choice, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []Choice{{Label: l, Data: l}})
	}
	return ChoiceSet{Rows: rows}
}

var (
	noteMenu  = menuRows("📝Add Note📝", "📖show Notes📖", "❌Delete Note❌")
	taskMenu  = menuRows("➕Add Task➕", "🔎show Tasks🔍", "✅Complete Task✅", "❌Delete Task❌")
	habitMenu = menuRows("➕Add Habit➕", "🔎show Habits🔍", "✅Complete Habit✅", "❌Delete Habit❌")
)

// moodScores maps the end-of-day mood buttons to their report score
var moodScores = map[string]int{
	"😎": 10,
	"😊": 7,
	"😐": 5,
	"😞": 3,
	"🤕": 2,
	"😡": 0,
}

var moodChoices = ChoiceSet{
	Inline: true,
	Rows: [][]Choice{
		{{Label: "😎", Data: "😎"}, {Label: "😊", Data: "😊"}, {Label: "😐", Data: "😐"}},
		{{Label: "😡", Data: "😡"}, {Label: "😞", Data: "😞"}, {Label: "🤕", Data: "🤕"}},
	},
}
