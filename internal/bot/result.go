package bot

type resultKind int

const (
	resultContinue resultKind = iota
	resultFinish
	resultExecute
)

// Result tells the dispatcher what to do with the chat after a command ran.
type Result struct {
	kind      resultKind
	forwarded []string
}

// Continue routes the chat's next event back to the same command.
func Continue() Result {
	return Result{kind: resultContinue}
}

// Finish returns the chat to stateless dispatch.
func Finish() Result {
	return Result{kind: resultFinish}
}

// Execute clears the chat's pending state and immediately re-dispatches
// args as if the user had typed them.
func Execute(args ...string) Result {
	return Result{kind: resultExecute, forwarded: args}
}
