package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/daily-journal/internal/conversation"
	"github.com/benvon/daily-journal/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	sendErr  error
	stopped  bool
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestMessenger_SendChoices(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	m := NewMessenger(api)
	ctx := context.Background()

	inline := conversation.ChoiceSet{Inline: true, Rows: [][]conversation.Choice{{{Label: "Yes", Data: "4"}, {Label: "No", Data: "no"}}}}
	if err := m.SendChoices(ctx, 7, "Did you read?", inline); err != nil {
		t.Fatal(err)
	}
	menu := conversation.ChoiceSet{Rows: [][]conversation.Choice{{{Label: "Add Task"}}, {{Label: "Show Tasks"}}}}
	if err := m.SendChoices(ctx, 7, "Choose", menu); err != nil {
		t.Fatal(err)
	}

	first := api.sent[0].(tgbotapi.MessageConfig)
	kb, ok := first.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("inline set sent %T", first.ReplyMarkup)
	}
	if first.ChatID != 7 || len(kb.InlineKeyboard[0]) != 2 || *kb.InlineKeyboard[0][0].CallbackData != "4" {
		t.Errorf("unexpected inline keyboard %+v", kb)
	}

	second := api.sent[1].(tgbotapi.MessageConfig)
	reply, ok := second.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("menu set sent %T", second.ReplyMarkup)
	}
	if !reply.ResizeKeyboard || len(reply.Keyboard) != 2 || reply.Keyboard[1][0].Text != "Show Tasks" {
		t.Errorf("unexpected reply keyboard %+v", reply)
	}
}

func TestMessenger_SendDocument(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	m := NewMessenger(api)
	if err := m.SendDocument(context.Background(), 9, "Ann 08_03_2024.png", []byte{0x89, 'P'}); err != nil {
		t.Fatal(err)
	}
	doc := api.sent[0].(tgbotapi.DocumentConfig)
	file, ok := doc.File.(tgbotapi.FileBytes)
	if !ok || file.Name != "Ann 08_03_2024.png" || doc.ChatID != 9 {
		t.Errorf("unexpected document %+v", doc)
	}

	api.sendErr = errors.New("Forbidden: bot was blocked by the user")
	if err := m.SendText(context.Background(), 9, "hi"); err == nil {
		t.Error("SendText() error = nil, want transport error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.SendText(ctx, 9, "hi"); !errors.Is(err, context.Canceled) {
		t.Errorf("SendText(cancelled) = %v", err)
	}
}

func command(chat int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chat},
		From:     &tgbotapi.User{ID: chat, FirstName: "Ann"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func text(chat int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: s, Chat: &tgbotapi.Chat{ID: chat}, From: &tgbotapi.User{FirstName: "Ann"}}}
}

func TestEventFromUpdate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		update tgbotapi.Update
		want   conversation.Event
		ok     bool
	}{
		{name: "command", update: command(5, "/end_day"), want: conversation.Event{Key: 5, DisplayName: "Ann", Command: "end_day"}, ok: true},
		{name: "text", update: text(5, "Add Task"), want: conversation.Event{Key: 5, DisplayName: "Ann", Text: "Add Task"}, ok: true},
		{
			name: "callback",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", Data: "😊", From: &tgbotapi.User{ID: 5, FirstName: "Ann"},
				Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}},
			}},
			want: conversation.Event{Key: 5, DisplayName: "Ann", Selection: "😊"},
			ok:   true,
		},
		{name: "sticker", update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 5}}}},
		{name: "edited", update: tgbotapi.Update{EditedMessage: &tgbotapi.Message{Text: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := EventFromUpdate(tt.update)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("event mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	events []conversation.Event
	done   chan struct{}
	want   int
}

func (h *recordingHandler) Handle(_ context.Context, ev conversation.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	if len(h.events) == h.want {
		close(h.done)
	}
	return nil
}

func TestPoller_KeepsPerChatOrder(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
	h := &recordingHandler{done: make(chan struct{}), want: 6}
	p := NewPoller(api, h, nil, nil)

	for _, s := range []string{"a", "b", "c"} {
		api.updates <- text(1, s)
		api.updates <- text(2, s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}
	cancel()
	<-errc

	perChat := map[models.UserKey][]string{}
	for _, ev := range h.events {
		perChat[ev.Key] = append(perChat[ev.Key], ev.Text)
	}
	want := map[models.UserKey][]string{1: {"a", "b", "c"}, 2: {"a", "b", "c"}}
	if diff := cmp.Diff(want, perChat); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !api.stopped {
		t.Error("updates not stopped")
	}
}

// stallingHandler blocks events of one chat until release is closed
type stallingHandler struct {
	stalled models.UserKey
	release chan struct{}
	handled chan models.UserKey
}

func (h *stallingHandler) Handle(ctx context.Context, ev conversation.Event) error {
	if ev.Key == h.stalled {
		<-h.release
	}
	h.handled <- ev.Key
	return nil
}

func TestPoller_SlowChatDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 64)}
	h := &stallingHandler{stalled: 1, release: make(chan struct{}), handled: make(chan models.UserKey, 64)}
	p := NewPoller(api, h, nil, nil)

	// Keys 1 and 9 shared a lane under modulo sharding.
	for i := 0; i < 40; i++ {
		api.updates <- text(1, "slow")
	}
	api.updates <- text(9, "fast")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()

	select {
	case key := <-h.handled:
		if key != 9 {
			t.Errorf("handled chat %d first, want 9", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast chat stalled behind slow chat")
	}

	close(h.release)
	for i := 0; i < 40; i++ {
		select {
		case <-h.handled:
		case <-time.After(2 * time.Second):
			t.Fatalf("slow chat delivered %d of 40 events", i)
		}
	}
	cancel()
	<-errc
}

func TestPoller_FloodGuard(t *testing.T) {
	t.Parallel()
	guard, err := NewFloodGuard(nil, "2-M")
	if err != nil {
		t.Fatal(err)
	}
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
	h := &recordingHandler{done: make(chan struct{}), want: 3}
	p := NewPoller(api, h, guard, nil)

	for i := 0; i < 4; i++ {
		api.updates <- text(1, "spam")
	}
	api.updates <- text(2, "hello")

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered")
	}
	cancel()
	<-errc

	if len(h.events) != 3 {
		t.Errorf("handled %d events, want 3", len(h.events))
	}
	if got := api.sentCount(); got != 1 {
		t.Errorf("sent %d rate limit notices, want 1", got)
	}
}

func TestNewFloodGuard_InvalidRate(t *testing.T) {
	t.Parallel()
	if _, err := NewFloodGuard(nil, "lots"); err == nil {
		t.Error("expected error for invalid rate")
	}
}

func TestPoller_AnswersCallbacks(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 1)}
	h := &recordingHandler{done: make(chan struct{}), want: 1}
	api.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb-1", Data: "no", From: &tgbotapi.User{ID: 3}, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 3}},
	}}
	p := NewPoller(api, h, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- p.Run(ctx) }()
	<-h.done
	cancel()
	<-errc

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(api.requests))
	}
	if cb, ok := api.requests[0].(tgbotapi.CallbackConfig); !ok || cb.CallbackQueryID != "cb-1" {
		t.Errorf("unexpected callback answer %+v", api.requests[0])
	}
}
