// Package telegram connects the conversation engine to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"

	"github.com/benvon/daily-journal/internal/conversation"
	"github.com/benvon/daily-journal/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

// Messenger sends conversation output to Telegram chats. The user key is the
// private chat id.
type Messenger struct {
	api API
}

var _ conversation.Messenger = (*Messenger)(nil)

// NewMessenger creates a messenger over api
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendText sends a plain text message
func (m *Messenger) SendText(ctx context.Context, key models.UserKey, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.api.Send(tgbotapi.NewMessage(int64(key), text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendDocument uploads data as a file named filename
func (m *Messenger) SendDocument(ctx context.Context, key models.UserKey, filename string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(int64(key), tgbotapi.FileBytes{Name: filename, Bytes: data})
	if _, err := m.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

// SendChoices sends text with a keyboard. Inline sets become inline buttons
// carrying their data; other sets become a resized reply keyboard.
func (m *Messenger) SendChoices(ctx context.Context, key models.UserKey, text string, choices conversation.ChoiceSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(int64(key), text)
	if choices.Inline {
		msg.ReplyMarkup = inlineKeyboard(choices.Rows)
	} else {
		msg.ReplyMarkup = replyKeyboard(choices.Rows)
	}
	if _, err := m.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send choices: %w", err)
	}
	return nil
}

func inlineKeyboard(rows [][]conversation.Choice) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, c := range row {
			data := c.Data
			if data == "" {
				data = c.Label
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Label, data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func replyKeyboard(rows [][]conversation.Choice) tgbotapi.ReplyKeyboardMarkup {
	out := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, c := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(c.Label))
		}
		out = append(out, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(out...)
	kb.ResizeKeyboard = true
	return kb
}
