package bot

import "context"

// Command is a named unit of behavior the dispatcher invokes for a chat's
// event.
type Command interface {
	Description() string
	Execute(ctx context.Context, cc *Context) Result
}

// Entry pairs a registered name with its command, for help rendering.
type Entry struct {
	Name    string
	Command Command
}

// Registry maps command names to implementations. Names are case-sensitive;
// registering a name twice keeps the last command.
type Registry struct {
	byName map[string]Command
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register binds name to cmd.
func (r *Registry) Register(name string, cmd Command) {
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = cmd
}

// Find returns the command registered under name.
func (r *Registry) Find(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns every registered entry in registration order.
func (r *Registry) All() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, Entry{Name: name, Command: r.byName[name]})
	}
	return entries
}
