package bot

import "context"

// AuthCommand is a command that must only run with a resolved identity.
type AuthCommand interface {
	Description() string
	ExecuteAuthenticated(ctx context.Context, cc *Context) Result
}

const notRegisteredMessage = "*Error: not registered\\!*\n" +
	"_I don't know you\\._\n" +
	"If you are a member of our organization" +
	" please contact your manager\\."

// Authenticated wraps cmd so it only runs when the context carries a
// resolved identity. Unauthenticated senders get a fixed denial message and
// the chat returns to stateless dispatch. ExecuteAuthenticated is never
// invoked without an identity; callers may rely on this single enforcement
// point.
func Authenticated(r Responder, cmd AuthCommand) Command {
	return &authGate{resp: r, cmd: cmd}
}

type authGate struct {
	resp Responder
	cmd  AuthCommand
}

func (g *authGate) Description() string {
	return g.cmd.Description()
}

func (g *authGate) Execute(ctx context.Context, cc *Context) Result {
	if cc.User == nil {
		g.resp.logger.Info().Int64("sender_id", cc.SenderID()).Msg("auth fail")
		g.resp.replyMarkdown(cc, notRegisteredMessage)
		return Finish()
	}
	return g.cmd.ExecuteAuthenticated(ctx, cc)
}
