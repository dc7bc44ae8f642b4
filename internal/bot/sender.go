package bot

import (
	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/metrics"
)

// Button is one inline keyboard button: a label and the static payload
// delivered when it is pressed.
type Button struct {
	Label string
	Data  string
}

// Message is an outbound chat message.
type Message struct {
	ChatID   int64
	Text     string
	Markdown bool // MarkdownV2 parse mode; Text must already be escaped
	ReplyTo  int  // message id to reply to, 0 for none
	Keyboard [][]Button
}

// Sender is the outbound transport contract. Every call may fail with a
// network error; callers treat failures as no-ops.
type Sender interface {
	Send(m Message) (messageID int, err error)
	Edit(chatID int64, messageID int, text string, keyboard [][]Button) error
	AnswerCallback(callbackID, text string) error
	SendTyping(chatID int64) error
}

// Responder wraps a Sender with the fire-and-forget policy the handlers
// share: failures are logged, counted and swallowed, never propagated.
type Responder struct {
	sender  Sender
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewResponder creates a Responder.
func NewResponder(sender Sender, m *metrics.Metrics, logger zerolog.Logger) Responder {
	return Responder{
		sender:  sender,
		metrics: m,
		logger:  logger.With().Str("component", "responder").Logger(),
	}
}

// send delivers m, returning the new message id or 0 on failure.
func (r Responder) send(m Message) int {
	id, err := r.sender.Send(m)
	if err != nil {
		r.logger.Error().Err(err).Int64("chat_id", m.ChatID).Msg("send failed")
		r.metrics.RecordSendFailure()
		return 0
	}
	return id
}

// reply sends plain text to the event's chat.
func (r Responder) reply(cc *Context, text string) int {
	return r.send(Message{ChatID: cc.ChatID(), Text: text})
}

// replyMarkdown sends MarkdownV2 text to the event's chat.
func (r Responder) replyMarkdown(cc *Context, text string) int {
	return r.send(Message{ChatID: cc.ChatID(), Text: text, Markdown: true})
}

// toast answers a callback query with a transient notification.
func (r Responder) toast(callbackID, text string) {
	if err := r.sender.AnswerCallback(callbackID, text); err != nil {
		r.logger.Error().Err(err).Msg("answer callback failed")
		r.metrics.RecordSendFailure()
	}
}

// edit rewrites a previously sent message in place.
func (r Responder) edit(chatID int64, messageID int, text string, keyboard [][]Button) {
	if err := r.sender.Edit(chatID, messageID, text, keyboard); err != nil {
		r.logger.Error().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("edit failed")
		r.metrics.RecordSendFailure()
	}
}

// typing emits a typing indicator, best effort.
func (r Responder) typing(chatID int64) {
	if err := r.sender.SendTyping(chatID); err != nil {
		r.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("typing indicator failed")
		r.metrics.RecordSendFailure()
	}
}
