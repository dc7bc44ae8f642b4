package bot

import (
	"context"
	"fmt"
)

// WhoamiCommand shows the sender their own Telegram id, which an admin
// needs to register them. It deliberately works without authentication.
type WhoamiCommand struct {
	resp Responder
}

// NewWhoamiCommand creates the /whoami handler.
func NewWhoamiCommand(resp Responder) *WhoamiCommand {
	return &WhoamiCommand{resp: resp}
}

func (c *WhoamiCommand) Description() string {
	return "Show your telegram ID and other info."
}

func (c *WhoamiCommand) Execute(ctx context.Context, cc *Context) Result {
	username := cc.Event.SenderUsername
	if username == "" {
		username = "(none)"
	}
	text := fmt.Sprintf("Telegram ID \\- `%d`\nUsername \\- @%s",
		cc.SenderID(), escapeMarkdownV2(username))

	c.resp.replyMarkdown(cc, text)
	return Finish()
}
