// Package telegram adapts the Telegram Bot API to the bot core: it turns
// inbound updates into normalized events and implements the outbound
// Sender contract.
package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/bot"
)

// Client wraps a Bot API connection.
type Client struct {
	api    *tgbotapi.BotAPI
	logger zerolog.Logger
}

// New connects to the Bot API and resolves the bot's own identity.
func New(token string, logger zerolog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	c := &Client{
		api:    api,
		logger: logger.With().Str("component", "telegram").Logger(),
	}
	c.logger.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")
	return c, nil
}

// Username returns the bot's public username, used for deep links.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Send implements bot.Sender.
func (c *Client) Send(m bot.Message) (int, error) {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	if m.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	if m.ReplyTo != 0 {
		msg.ReplyToMessageID = m.ReplyTo
	}
	if len(m.Keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(m.Keyboard)
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit implements bot.Sender.
func (c *Client) Edit(chatID int64, messageID int, text string, keyboard [][]bot.Button) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, inlineKeyboard(keyboard))
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := c.api.Send(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// AnswerCallback implements bot.Sender.
func (c *Client) AnswerCallback(callbackID, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := c.api.Request(callback); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SendTyping implements bot.Sender.
func (c *Client) SendTyping(chatID int64) error {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := c.api.Request(action); err != nil {
		return fmt.Errorf("send typing: %w", err)
	}
	return nil
}

// Run long-polls for updates until ctx is cancelled, handing each
// normalized event to the processor. Unsupported update shapes are logged
// and dropped; they never stop the loop.
func (c *Client) Run(ctx context.Context, proc *bot.Processor, pollTimeout int) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	updates := c.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			ev, err := bot.FromUpdate(upd)
			if err != nil {
				if !errors.Is(err, bot.ErrUnsupportedUpdate) {
					c.logger.Error().Err(err).Msg("update normalization failed")
				} else {
					c.logger.Debug().Int("update_id", upd.UpdateID).Msg("unsupported update dropped")
				}
				continue
			}
			proc.Process(ctx, ev)
		}
	}
}

func inlineKeyboard(rows [][]bot.Button) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: kbRows}
}
