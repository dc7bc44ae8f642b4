// Package bot implements the conversational command engine: event
// normalization, registry-based dispatch, per-chat continuation state,
// the authentication gate and the command handlers themselves.
package bot

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrUnsupportedUpdate marks updates that carry neither message text nor a
// callback query. They indicate a transport contract change, not user error.
var ErrUnsupportedUpdate = errors.New("bot: unsupported update type")

// Callback carries the pieces of a button press the handlers need.
type Callback struct {
	// ID identifies the callback query for answering with a toast.
	ID string

	// Data is the static payload the button was created with.
	Data string

	// MessageID is the message the pressed button was attached to.
	MessageID int

	// MessageDate is the unix timestamp of that message. Telegram reports 0
	// once the message is too old to access.
	MessageDate int64

	// ReplyToText is the text of the message the button's message replied
	// to, empty when there is no reply chain.
	ReplyToText string
}

// Event is the normalized view of one inbound update: either a text message
// (Callback == nil) or a button press.
type Event struct {
	ChatID         int64
	SenderID       int64
	SenderUsername string
	Text           string
	Callback       *Callback
}

// IsCallback reports whether the event originated from a button press.
func (e Event) IsCallback() bool {
	return e.Callback != nil
}

// Args splits the event into dispatch arguments: whitespace-separated words
// for text, underscore-separated segments for callback data.
func (e Event) Args() []string {
	if e.Callback != nil {
		return strings.Split(e.Callback.Data, "_")
	}
	return strings.Fields(e.Text)
}

// FromUpdate normalizes a Telegram update into an Event.
func FromUpdate(u tgbotapi.Update) (Event, error) {
	switch {
	case u.Message != nil && u.Message.Text != "":
		return Event{
			ChatID:         u.Message.Chat.ID,
			SenderID:       u.Message.From.ID,
			SenderUsername: u.Message.From.UserName,
			Text:           u.Message.Text,
		}, nil

	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		cq := u.CallbackQuery
		cb := &Callback{
			ID:          cq.ID,
			Data:        cq.Data,
			MessageID:   cq.Message.MessageID,
			MessageDate: int64(cq.Message.Date),
		}
		if cq.Message.ReplyToMessage != nil {
			cb.ReplyToText = cq.Message.ReplyToMessage.Text
		}
		return Event{
			ChatID:         cq.Message.Chat.ID,
			SenderID:       cq.From.ID,
			SenderUsername: cq.From.UserName,
			Callback:       cb,
		}, nil
	}

	return Event{}, ErrUnsupportedUpdate
}
