package telegram

import (
	"context"
	"strings"
	"sync"

	"github.com/benvon/daily-journal/internal/conversation"
	"github.com/benvon/daily-journal/internal/logger"
	"github.com/benvon/daily-journal/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	longPollTimeout   = 60
	floodLimitedReply = "You're sending messages too quickly. Please wait a minute⏳"
)

// Handler consumes inbound chat events
type Handler interface {
	Handle(ctx context.Context, ev conversation.Event) error
}

// EventFromUpdate maps an update to a conversation event. Updates that carry
// nothing the engine reads (stickers, edits, channel posts) are skipped.
func EventFromUpdate(u tgbotapi.Update) (conversation.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		var key int64
		if cq.Message != nil && cq.Message.Chat != nil {
			key = cq.Message.Chat.ID
		} else if cq.From != nil {
			key = cq.From.ID
		}
		if key == 0 {
			return conversation.Event{}, false
		}
		return conversation.Event{Key: models.UserKey(key), DisplayName: firstName(cq.From), Selection: cq.Data}, true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return conversation.Event{}, false
	}
	ev := conversation.Event{Key: models.UserKey(msg.Chat.ID), DisplayName: firstName(msg.From)}
	if msg.IsCommand() {
		ev.Command = strings.ToLower(msg.Command())
	} else {
		ev.Text = msg.Text
	}
	return ev, true
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}

// Poller long-polls Telegram and feeds events to a handler. Events of one
// chat are handled in arrival order by that chat's own goroutine, so a slow
// chat never holds up another.
type Poller struct {
	api     API
	handler Handler
	flood   *FloodGuard
	logger  *zap.Logger

	mu      sync.Mutex
	limited map[models.UserKey]bool

	chatMu  sync.Mutex
	chats   map[models.UserKey]*chatQueue
	workers sync.WaitGroup
}

// chatQueue holds the events of one chat waiting for its worker
type chatQueue struct {
	pending []conversation.Event
}

// NewPoller creates a poller. flood may be nil to disable flood limiting.
func NewPoller(api API, handler Handler, flood *FloodGuard, log *zap.Logger) *Poller {
	return &Poller{
		api:     api,
		handler: handler,
		flood:   flood,
		logger:  logger.OrNop(log),
		limited: make(map[models.UserKey]bool),
		chats:   make(map[models.UserKey]*chatQueue),
	}
}

// Run polls until ctx is cancelled and waits for in-flight events
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = longPollTimeout
	updates := p.api.GetUpdatesChan(cfg)
	defer p.api.StopReceivingUpdates()
	defer p.workers.Wait()

	p.logger.Info("telegram_polling_started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telegram_polling_stopped")
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			p.answerCallback(u)
			ev, ok := EventFromUpdate(u)
			if !ok {
				continue
			}
			if !p.allow(ctx, ev.Key) {
				continue
			}
			p.enqueue(ctx, ev)
		}
	}
}

// enqueue appends ev to its chat's queue and starts a worker for the chat if
// none is running. It never blocks on the handler.
func (p *Poller) enqueue(ctx context.Context, ev conversation.Event) {
	p.chatMu.Lock()
	if q, ok := p.chats[ev.Key]; ok {
		q.pending = append(q.pending, ev)
		p.chatMu.Unlock()
		return
	}
	q := &chatQueue{pending: []conversation.Event{ev}}
	p.chats[ev.Key] = q
	p.workers.Add(1)
	p.chatMu.Unlock()

	go p.drain(ctx, ev.Key, q)
}

// drain handles the chat's events in order and exits once the queue is empty
func (p *Poller) drain(ctx context.Context, key models.UserKey, q *chatQueue) {
	defer p.workers.Done()
	for {
		p.chatMu.Lock()
		if len(q.pending) == 0 {
			delete(p.chats, key)
			p.chatMu.Unlock()
			return
		}
		ev := q.pending[0]
		q.pending[0] = conversation.Event{}
		q.pending = q.pending[1:]
		p.chatMu.Unlock()

		p.handle(ctx, ev)
	}
}

func (p *Poller) handle(ctx context.Context, ev conversation.Event) {
	if err := p.handler.Handle(ctx, ev); err != nil {
		p.logger.Warn("failed_to_handle_update",
			zap.Int64("user_key", int64(ev.Key)),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

// answerCallback stops the client spinner on inline buttons
func (p *Poller) answerCallback(u tgbotapi.Update) {
	if u.CallbackQuery == nil {
		return
	}
	if _, err := p.api.Request(tgbotapi.NewCallback(u.CallbackQuery.ID, "")); err != nil {
		p.logger.Debug("failed_to_answer_callback", zap.Error(err))
	}
}

// allow applies the flood guard. The first rejected update of a burst gets a
// notice; the rest are dropped silently.
func (p *Poller) allow(ctx context.Context, key models.UserKey) bool {
	if p.flood == nil {
		return true
	}
	ok, err := p.flood.Allow(ctx, key)
	if err != nil {
		p.logger.Warn("chat_rate_limit_check_failed", zap.Error(err))
		return true
	}

	p.mu.Lock()
	notify := !ok && !p.limited[key]
	if ok {
		delete(p.limited, key)
	} else {
		p.limited[key] = true
	}
	p.mu.Unlock()

	if notify {
		p.logger.Info("chat_rate_limited", zap.Int64("user_key", int64(key)))
		if _, err := p.api.Send(tgbotapi.NewMessage(int64(key), floodLimitedReply)); err != nil {
			p.logger.Debug("failed_to_send_rate_limit_notice", zap.Error(err))
		}
	}
	return ok
}
