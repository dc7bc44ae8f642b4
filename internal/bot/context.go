package bot

import "github.com/planwise/sprintbot/internal/model"

const cancelKeyword = "/cancel"

// Context is the per-dispatch view a command receives: the normalized event,
// its arguments, the resolved identity (nil when unauthenticated) and the
// services the command may consult.
type Context struct {
	Event Event
	Args  []string

	// User is the identity resolved for the sender, nil if unknown.
	User *model.User

	registry *Registry
	botName  string
}

// ChatID returns the conversation the event belongs to.
func (c *Context) ChatID() int64 {
	return c.Event.ChatID
}

// SenderID returns the platform id of the user who sent the event.
func (c *Context) SenderID() int64 {
	return c.Event.SenderID
}

// IsCallback reports whether the event is a button press.
func (c *Context) IsCallback() bool {
	return c.Event.IsCallback()
}

// HasArgs reports whether the command received any argument beyond its name.
func (c *Context) HasArgs() bool {
	return len(c.Args) > 1
}

// Cancelled reports whether the user sent the cancellation keyword.
func (c *Context) Cancelled() bool {
	return len(c.Args) > 0 && c.Args[0] == cancelKeyword
}

// Registry exposes the command registry, used by help rendering. Invoking
// commands through it from inside a command risks recursion; don't.
func (c *Context) Registry() *Registry {
	return c.registry
}

// BotUsername returns the bot's public username, used to build deep links.
func (c *Context) BotUsername() string {
	return c.botName
}

// AuthenticatedUser returns the resolved identity. It must only be called
// from behind the authentication gate.
func (c *Context) AuthenticatedUser() *model.User {
	if c.User == nil {
		panic("bot: AuthenticatedUser called without identity")
	}
	return c.User
}
