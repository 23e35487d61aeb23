package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/daily-journal/internal/commit"
	"github.com/benvon/daily-journal/internal/database"
	"github.com/benvon/daily-journal/internal/journal"
	"github.com/benvon/daily-journal/internal/models"
	"github.com/google/go-cmp/cmp"
)

const testKey models.UserKey = 42

var testNow = time.Date(2024, 3, 8, 21, 0, 0, 0, time.Local)

// trace is a shared, ordered log of side effects
type trace struct {
	mu     sync.Mutex
	events []string
}

func (t *trace) add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

func (t *trace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type fakeMessenger struct {
	trace   *trace
	texts   []string
	choices []ChoiceSet
	docs    []string
	failDoc bool
}

func (m *fakeMessenger) SendText(_ context.Context, _ models.UserKey, text string) error {
	m.texts = append(m.texts, text)
	m.trace.add("text:%s", text)
	return nil
}

func (m *fakeMessenger) SendDocument(_ context.Context, _ models.UserKey, filename string, _ []byte) error {
	if m.failDoc {
		return errors.New("upload failed")
	}
	m.docs = append(m.docs, filename)
	m.trace.add("document:%s", filename)
	return nil
}

func (m *fakeMessenger) SendChoices(_ context.Context, _ models.UserKey, text string, choices ChoiceSet) error {
	m.texts = append(m.texts, text)
	m.choices = append(m.choices, choices)
	m.trace.add("choices:%s", text)
	return nil
}

func (m *fakeMessenger) last() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

type fakeGraphs struct {
	trace   *trace
	creates int
	inserts []int
	insert  commit.Status
}

func (g *fakeGraphs) CreateGraph(_ context.Context, name string) commit.Result {
	g.creates++
	g.trace.add("create_graph:%s", name)
	return commit.Result{Status: commit.StatusOK, URL: "https://graphs.test/" + name, Attempts: 1}
}

func (g *fakeGraphs) InsertData(_ context.Context, name string, value int) commit.Result {
	g.inserts = append(g.inserts, value)
	g.trace.add("insert_data:%d", value)
	if g.insert != commit.StatusOK {
		return commit.Result{Status: g.insert, Reason: "unavailable", Attempts: 3}
	}
	return commit.Result{Status: commit.StatusOK, URL: "https://graphs.test/" + name, Attempts: 1}
}

type harness struct {
	engine    *Engine
	repos     *database.Repositories
	messenger *fakeMessenger
	graphs    *fakeGraphs
	trace     *trace
}

func newHarness(t *testing.T, gen journal.Generator) *harness {
	t.Helper()
	tr := &trace{}
	h := &harness{
		repos:     database.NewMemoryStore().Repositories(),
		messenger: &fakeMessenger{trace: tr},
		graphs:    &fakeGraphs{trace: tr},
		trace:     tr,
	}
	if gen == nil {
		gen = journal.GeneratorFunc(func(_ context.Context, snap *models.DaySnapshot) (*journal.Artifact, error) {
			return &journal.Artifact{Filename: snap.DisplayName + ".png", Data: []byte("png")}, nil
		})
	}
	h.engine = NewEngine(Config{
		Repos:     h.repos,
		Messenger: h.messenger,
		Generator: gen,
		Graphs:    h.graphs,
		Now:       func() time.Time { return testNow },
	})
	return h
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	if err := h.engine.Handle(context.Background(), Event{Key: testKey, DisplayName: "Ann", Text: text}); err != nil {
		t.Fatalf("Handle(%q) error = %v", text, err)
	}
}

func (h *harness) command(t *testing.T, cmd string) {
	t.Helper()
	if err := h.engine.Handle(context.Background(), Event{Key: testKey, DisplayName: "Ann", Command: cmd}); err != nil {
		t.Fatalf("Handle(/%s) error = %v", cmd, err)
	}
}

func (h *harness) selection(t *testing.T, data string) {
	t.Helper()
	if err := h.engine.Handle(context.Background(), Event{Key: testKey, DisplayName: "Ann", Selection: data}); err != nil {
		t.Fatalf("Handle(selection %q) error = %v", data, err)
	}
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	tok, err := h.repos.Users.GetPendingState(context.Background(), testKey)
	if err != nil {
		t.Fatalf("GetPendingState() error = %v", err)
	}
	s, err := ParseState(tok)
	if err != nil {
		t.Fatalf("ParseState(%q) error = %v", tok, err)
	}
	return s
}

func TestMatchMenuCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		want   MenuCommand
		wantOK bool
	}{
		{text: "➕Add Task➕", want: MenuAddTask, wantOK: true},
		{text: "🔎show Tasks🔍", want: MenuShowTasks, wantOK: true},
		{text: "  ✅COMPLETE HABIT✅ ", want: MenuCompleteHabit, wantOK: true},
		{text: "xdelete notex", want: MenuDeleteNote, wantOK: true},
		{text: "add task", wantOK: false},
		{text: "buy milk", wantOK: false},
		{text: "x", wantOK: false},
		{text: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			got, ok := MatchMenuCommand(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MatchMenuCommand(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	t.Parallel()
	for s := range stateTokens {
		got, err := ParseState(s.Token())
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v; want %v", s.Token(), got, err, s)
		}
	}
	if got, err := ParseState("idle"); err != nil || got != StateIdle {
		t.Errorf("ParseState(idle) = %v, %v", got, err)
	}
	if _, err := ParseState("dance"); err == nil {
		t.Error("ParseState(dance) expected error")
	}
}

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()
	counts := make([]int, 4)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		slot := i % 4
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock(models.UserKey(slot))
			defer unlock()
			counts[slot]++
		}()
	}
	wg.Wait()
	for slot, n := range counts {
		if n != 50 {
			t.Errorf("counts[%d] = %d, want 50", slot, n)
		}
	}
	if n := km.size(); n != 0 {
		t.Errorf("size() = %d after all unlocks, want 0", n)
	}
}

func TestKeyedMutex_BlocksSameKey(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()
	unlock := km.Lock(1)

	other := make(chan struct{})
	go func() {
		u := km.Lock(2)
		u()
		close(other)
	}()
	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("a different key was blocked")
	}

	acquired := make(chan struct{})
	go func() {
		u := km.Lock(1)
		close(acquired)
		u()
	}()
	select {
	case <-acquired:
		t.Fatal("same key acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("same key never acquired after unlock")
	}
}

func TestEngine_FreeTextWhileIdle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.text(t, "hello there")
	if got := h.messenger.last(); got != msgChooseFirst {
		t.Errorf("reply = %q, want %q", got, msgChooseFirst)
	}
	if h.state(t) != StateIdle {
		t.Errorf("state = %v, want idle", h.state(t))
	}
}

func TestEngine_TaskIDsAreNotReused(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.text(t, "➕Add Task➕")
	if h.state(t) != StateAddTask {
		t.Fatalf("state = %v, want add_task", h.state(t))
	}
	h.text(t, "buy milk")
	if got := h.messenger.last(); got != "Task №:1 was added!" {
		t.Errorf("reply = %q", got)
	}
	if h.state(t) != StateIdle {
		t.Errorf("state after add = %v, want idle", h.state(t))
	}

	h.text(t, "➕Add Task➕")
	h.text(t, "write report")
	h.text(t, "❌Delete Task❌")
	h.text(t, "1")
	if got := h.messenger.last(); got != "The task №:1 has been removed." {
		t.Errorf("reply = %q", got)
	}
	h.text(t, "➕Add Task➕")
	h.text(t, "call mom")
	if got := h.messenger.last(); got != "Task №:3 was added!" {
		t.Errorf("reply after delete = %q, want id 3", got)
	}

	tasks, err := h.repos.Tasks.ListByDay(context.Background(), testKey, models.DayOf(testNow))
	if err != nil {
		t.Fatal(err)
	}
	var ids []int
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	if diff := cmp.Diff([]int{2, 3}, ids); diff != "" {
		t.Errorf("task ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_CompleteTaskValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.text(t, "➕Add Task➕")
	h.text(t, "buy milk")

	h.text(t, "✅Complete Task✅")
	if !strings.Contains(h.messenger.last(), "Enter the ID of the task you want to mark as completed.") {
		t.Errorf("prompt = %q", h.messenger.last())
	}

	steps := []struct {
		input string
		reply string
		state State
	}{
		{input: "first", reply: msgBadTaskInput, state: StateCompleteTask},
		{input: "9", reply: msgBadTaskID, state: StateCompleteTask},
		{input: " 1 ", reply: "The task №:1 has been marked as completed✅", state: StateIdle},
	}
	for _, s := range steps {
		h.text(t, s.input)
		if got := h.messenger.last(); got != s.reply {
			t.Errorf("input %q: reply = %q, want %q", s.input, got, s.reply)
		}
		if got := h.state(t); got != s.state {
			t.Errorf("input %q: state = %v, want %v", s.input, got, s.state)
		}
	}

	h.text(t, "✅Complete Task✅")
	if got := h.messenger.last(); got != msgNoTasksLeft {
		t.Errorf("reply with nothing pending = %q", got)
	}
	if h.state(t) != StateIdle {
		t.Errorf("state = %v, want idle", h.state(t))
	}
}

func TestEngine_IDModesValidateInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	day := models.DayOf(testNow)

	tests := []struct {
		name       string
		add        string
		menu       string
		state      State
		badInput   string
		badID      string
		doneReply  string
		checkAfter func(t *testing.T, repos *database.Repositories)
	}{
		{
			name:      "complete task",
			add:       "➕Add Task➕",
			menu:      "✅Complete Task✅",
			state:     StateCompleteTask,
			badInput:  msgBadTaskInput,
			badID:     msgBadTaskID,
			doneReply: msgTaskCompleted(1),
			checkAfter: func(t *testing.T, repos *database.Repositories) {
				tasks, err := repos.Tasks.ListByDay(ctx, testKey, day)
				if err != nil {
					t.Fatal(err)
				}
				if len(tasks) != 1 || !tasks[0].Completed {
					t.Errorf("tasks = %+v, want one completed", tasks)
				}
			},
		},
		{
			name:      "delete task",
			add:       "➕Add Task➕",
			menu:      "❌Delete Task❌",
			state:     StateDeleteTask,
			badInput:  msgBadTaskInput,
			badID:     msgPickListedID,
			doneReply: msgTaskDeleted(1),
			checkAfter: func(t *testing.T, repos *database.Repositories) {
				tasks, err := repos.Tasks.ListByDay(ctx, testKey, day)
				if err != nil {
					t.Fatal(err)
				}
				if len(tasks) != 0 {
					t.Errorf("tasks = %+v, want none", tasks)
				}
			},
		},
		{
			name:      "delete note",
			add:       "📝Add Note📝",
			menu:      "❌Delete Note❌",
			state:     StateDeleteNote,
			badInput:  msgBadNoteInput,
			badID:     msgPickListedID,
			doneReply: msgNoteDeleted(1),
			checkAfter: func(t *testing.T, repos *database.Repositories) {
				notes, err := repos.Notes.ListByDay(ctx, testKey, day)
				if err != nil {
					t.Fatal(err)
				}
				if len(notes) != 0 {
					t.Errorf("notes = %+v, want none", notes)
				}
			},
		},
		{
			name:      "complete habit",
			add:       "➕Add Habit➕",
			menu:      "✅Complete Habit✅",
			state:     StateCompleteHabit,
			badInput:  msgBadHabitInput,
			badID:     msgBadHabitID,
			doneReply: msgHabitCompleted(1),
			checkAfter: func(t *testing.T, repos *database.Repositories) {
				habits, err := repos.Habits.List(ctx, testKey)
				if err != nil {
					t.Fatal(err)
				}
				if len(habits) != 1 || !habits[0].Completed {
					t.Errorf("habits = %+v, want one completed", habits)
				}
			},
		},
		{
			name:      "delete habit",
			add:       "➕Add Habit➕",
			menu:      "❌Delete Habit❌",
			state:     StateDeleteHabit,
			badInput:  msgBadHabitInput,
			badID:     msgBadHabitID,
			doneReply: msgHabitDeleted(1),
			checkAfter: func(t *testing.T, repos *database.Repositories) {
				habits, err := repos.Habits.List(ctx, testKey)
				if err != nil {
					t.Fatal(err)
				}
				if len(habits) != 0 {
					t.Errorf("habits = %+v, want none", habits)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)
			h.text(t, tt.add)
			h.text(t, "stretch")
			h.text(t, tt.menu)
			if got := h.state(t); got != tt.state {
				t.Fatalf("state after menu = %v, want %v", got, tt.state)
			}

			steps := []struct {
				input string
				reply string
				state State
			}{
				{input: "the first one", reply: tt.badInput, state: tt.state},
				{input: "7", reply: tt.badID, state: tt.state},
				{input: "1", reply: tt.doneReply, state: StateIdle},
			}
			for _, s := range steps {
				h.text(t, s.input)
				if got := h.messenger.last(); got != s.reply {
					t.Errorf("input %q: reply = %q, want %q", s.input, got, s.reply)
				}
				if got := h.state(t); got != s.state {
					t.Errorf("input %q: state = %v, want %v", s.input, got, s.state)
				}
			}
			tt.checkAfter(t, h.repos)
		})
	}
}

func TestEngine_EmptyListsDoNotEnterModes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		menu  string
		reply string
	}{
		{menu: "❌Delete Task❌", reply: msgNoTasks},
		{menu: "🔎show Tasks🔍", reply: msgNoTasks},
		{menu: "❌Delete Note❌", reply: msgNoNotesToDelete},
		{menu: "📖show Notes📖", reply: msgNoNotes},
		{menu: "✅Complete Habit✅", reply: msgNoHabitsLeft},
		{menu: "❌Delete Habit❌", reply: msgNoHabits},
	}
	for _, tt := range tests {
		t.Run(tt.menu, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, nil)
			h.text(t, tt.menu)
			if got := h.messenger.last(); got != tt.reply {
				t.Errorf("reply = %q, want %q", got, tt.reply)
			}
			if h.state(t) != StateIdle {
				t.Errorf("state = %v, want idle", h.state(t))
			}
		})
	}
}

func TestEngine_NotesAndHabits(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	h.text(t, "📝Add Note📝")
	h.text(t, "rainy day")
	if got := h.messenger.last(); got != "Note №:1 was added." {
		t.Errorf("note reply = %q", got)
	}
	h.text(t, "📖show Notes📖")
	if !strings.Contains(h.messenger.last(), "1. rainy day") {
		t.Errorf("show notes = %q", h.messenger.last())
	}

	h.text(t, "➕Add Habit➕")
	h.text(t, "stretch")
	if got := h.messenger.last(); got != msgHabitAdded {
		t.Errorf("habit reply = %q", got)
	}
	h.text(t, "✅Complete Habit✅")
	h.text(t, "5")
	if got := h.messenger.last(); got != msgBadHabitID {
		t.Errorf("bad habit id reply = %q", got)
	}
	h.text(t, "1")
	if got := h.messenger.last(); got != "The habit No.1 has been marked as completed✅" {
		t.Errorf("complete habit reply = %q", got)
	}
	h.text(t, "🔎show Habits🔍")
	if !strings.Contains(h.messenger.last(), "Completed Habits✅") {
		t.Errorf("show habits = %q", h.messenger.last())
	}
}

func TestEngine_SetStatusFlattensNewlines(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.command(t, CommandState)
	if h.state(t) != StateSetStatus {
		t.Fatalf("state = %v", h.state(t))
	}
	h.text(t, "Berlin\nreading")
	user, err := h.repos.Users.Get(context.Background(), testKey)
	if err != nil {
		t.Fatal(err)
	}
	if user.FreeTextStatus == nil || *user.FreeTextStatus != "Berlin reading" {
		t.Errorf("status = %v", user.FreeTextStatus)
	}
	if got := h.messenger.last(); got != msgStatusSet {
		t.Errorf("reply = %q", got)
	}
}

func TestEngine_DayRating(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	ctx := context.Background()

	if _, err := h.repos.Habits.Create(ctx, testKey, "run", testNow); err != nil {
		t.Fatal(err)
	}
	h.command(t, CommandEndDay)
	if h.state(t) != StateDayRating {
		t.Fatalf("state = %v, want day_rating", h.state(t))
	}
	// mood grid plus one yes/no prompt for the pending habit
	if len(h.messenger.choices) != 2 {
		t.Fatalf("choice prompts = %d, want 2", len(h.messenger.choices))
	}
	yes := h.messenger.choices[1].Rows[0][0]
	h.selection(t, yes.Data)
	if got := h.messenger.last(); got != msgHabitDoneTick {
		t.Errorf("habit selection reply = %q", got)
	}
	h.selection(t, "😊")
	if h.state(t) != StateDayRating {
		t.Errorf("selections changed state to %v", h.state(t))
	}

	h.text(t, "11")
	if got := h.messenger.last(); got != msgRatingRange {
		t.Errorf("reply to 11 = %q", got)
	}
	if h.state(t) != StateDayRating {
		t.Errorf("state after 11 = %v, want day_rating", h.state(t))
	}
	h.text(t, "great")
	if got := h.messenger.last(); got != msgRatingNaN {
		t.Errorf("reply to text = %q", got)
	}

	h.text(t, "7")
	if h.state(t) != StateIdle {
		t.Errorf("state after 7 = %v, want idle", h.state(t))
	}
	rating, err := h.repos.Entries.GetRating(ctx, testKey, models.DayOf(testNow))
	if err != nil || rating.Score != 7 {
		t.Fatalf("GetRating() = %+v, %v; want 7", rating, err)
	}
	mood, err := h.repos.Entries.GetMood(ctx, testKey, models.DayOf(testNow))
	if err != nil || mood.Score != 7 {
		t.Errorf("GetMood() = %+v, %v", mood, err)
	}
	if _, err := h.repos.Journals.Get(ctx, testKey, models.DayOf(testNow)); err != nil {
		t.Errorf("journal not stored: %v", err)
	}

	habits, err := h.repos.Habits.List(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 || habits[0].Completed {
		t.Errorf("habits not reset: %+v", habits[0])
	}

	want := []string{
		"text:" + msgJournalOnWay,
		"document:Ann.png",
		"create_graph:Ann",
		"insert_data:7",
		"text:" + msgGraphLink("Ann", "https://graphs.test/Ann"),
	}
	events := h.trace.list()
	tail := events[len(events)-len(want):]
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Errorf("close day order mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_GraphCreatedOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	for i := 0; i < 2; i++ {
		h.command(t, CommandEndDay)
		h.text(t, "8")
	}
	if h.graphs.creates != 1 {
		t.Errorf("CreateGraph calls = %d, want 1", h.graphs.creates)
	}
	if diff := cmp.Diff([]int{8, 8}, h.graphs.inserts); diff != "" {
		t.Errorf("inserts mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ArtifactFailureKeepsRating(t *testing.T) {
	t.Parallel()
	failing := journal.GeneratorFunc(func(context.Context, *models.DaySnapshot) (*journal.Artifact, error) {
		return nil, errors.New("no font")
	})
	h := newHarness(t, failing)
	h.graphs.insert = commit.StatusRetryable
	ctx := context.Background()
	if _, err := h.repos.Habits.Create(ctx, testKey, "run", testNow); err != nil {
		t.Fatal(err)
	}
	if err := h.repos.Habits.Complete(ctx, testKey, 1, testNow); err != nil {
		t.Fatal(err)
	}

	h.command(t, CommandEndDay)
	h.text(t, "4")

	if _, err := h.repos.Entries.GetRating(ctx, testKey, models.DayOf(testNow)); err != nil {
		t.Errorf("rating lost after artifact failure: %v", err)
	}
	if len(h.graphs.inserts) != 1 {
		t.Errorf("graph insert not attempted")
	}
	for _, txt := range h.messenger.texts {
		if strings.HasPrefix(txt, "🔗") {
			t.Errorf("graph link sent after failed insert: %q", txt)
		}
	}
	habits, _ := h.repos.Habits.List(ctx, testKey)
	if habits[0].Completed {
		t.Error("habits not reset after artifact failure")
	}
}

func TestEngine_Selections(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.selection(t, "no")
	if got := h.messenger.last(); got != msgNoWorries {
		t.Errorf("no reply = %q", got)
	}
	before := len(h.messenger.texts)
	h.selection(t, "17")
	h.selection(t, "maybe")
	if len(h.messenger.texts) != before {
		t.Errorf("unknown selections replied: %v", h.messenger.texts[before:])
	}
	h.selection(t, "😡")
	mood, err := h.repos.Entries.GetMood(context.Background(), testKey, models.DayOf(testNow))
	if err != nil || mood.Score != 0 {
		t.Errorf("GetMood() = %+v, %v; want score 0", mood, err)
	}
}

func TestEngine_Start(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.command(t, CommandStart)
	user, err := h.repos.Users.Get(context.Background(), testKey)
	if err != nil || user.DisplayName != "Ann" {
		t.Fatalf("profile = %+v, %v", user, err)
	}
	if !strings.HasPrefix(h.messenger.texts[0], "Hi Ann! 👋") {
		t.Errorf("welcome = %q", h.messenger.texts[0])
	}
	if diff := cmp.Diff([]string{"Ann.png"}, h.messenger.docs); diff != "" {
		t.Errorf("sample documents mismatch (-want +got):\n%s", diff)
	}
}

type failingTasks struct {
	database.TaskRepositoryInterface
}

func (failingTasks) Create(context.Context, models.UserKey, string, time.Time) (*models.Task, error) {
	return nil, errors.New("connection reset")
}

func TestEngine_StoreFailureKeepsState(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	h.repos.Tasks = failingTasks{h.repos.Tasks}

	h.text(t, "➕Add Task➕")
	err := h.engine.Handle(context.Background(), Event{Key: testKey, Text: "buy milk"})
	if err == nil {
		t.Fatal("Handle() expected error")
	}
	if got := h.messenger.last(); got != msgSomethingWent {
		t.Errorf("reply = %q", got)
	}
	if h.state(t) != StateAddTask {
		t.Errorf("state = %v, want add_task", h.state(t))
	}
}
