package bot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Check decides whether a command may run. Returning false without an error
// fails the check silently.
type Check func(c *Context) (bool, error)

// Command is a text command.
type Command struct {
	Name    string
	Aliases []string
	// Help is shown by !comenzi.
	Help   string
	Params []Param
	// IgnoreExtra accepts arguments left after every parameter.
	IgnoreExtra bool
	OwnerOnly   bool
	GuildOnly   bool
	Hidden      bool
	Checks      []Check
	Cooldown    *Cooldown
	// MaxConcurrency is how many invocations one user may run at once,
	// 0 means unlimited.
	MaxConcurrency int
	Run            func(c *Context) error

	cooldowns   *cooldownMapping
	concurrency *concurrency
}

// Usage renders the command with its parameters: !adauga <materie> [temă].
func (cmd *Command) Usage() string {
	parts := []string{"!" + cmd.Name}
	for _, param := range cmd.Params {
		if param.Optional {
			parts = append(parts, "["+param.Name+"]")
		} else {
			parts = append(parts, "<"+param.Name+">")
		}
	}
	return strings.Join(parts, " ")
}

// ResetCooldown refills the cooldown bucket m falls into.
func (cmd *Command) ResetCooldown(m *discordgo.Message) {
	if cmd.cooldowns != nil {
		cmd.cooldowns.reset(m)
	}
}

// Router dispatches prefixed messages to commands.
type Router struct {
	prefixes []string

	mu       sync.RWMutex
	commands map[string]*Command
	names    []string
	disabled map[string]bool

	now func() time.Time
}

// NewRouter returns a router answering to the given prefixes.
func NewRouter(prefixes ...string) *Router {
	return &Router{
		prefixes: prefixes,
		commands: make(map[string]*Command),
		disabled: make(map[string]bool),
		now:      time.Now,
	}
}

// Register adds commands, under their names and aliases.
func (r *Router) Register(commands ...*Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range commands {
		if cmd.Cooldown != nil {
			cmd.cooldowns = newCooldownMapping(*cmd.Cooldown)
		}
		if cmd.MaxConcurrency > 0 {
			cmd.concurrency = newConcurrency(cmd.MaxConcurrency)
		}
		r.commands[strings.ToLower(cmd.Name)] = cmd
		for _, alias := range cmd.Aliases {
			r.commands[strings.ToLower(alias)] = cmd
		}
		r.names = append(r.names, cmd.Name)
	}
	sort.Strings(r.names)
}

// Command looks a command up by name or alias, case-insensitively.
func (r *Router) Command(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (r *Router) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.commands[strings.ToLower(name)])
	}
	return out
}

// SetEnabled switches a command on or off.
func (r *Router) SetEnabled(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cmd, ok := r.commands[strings.ToLower(name)]; ok {
		r.disabled[cmd.Name] = !enabled
	}
}

func (r *Router) isDisabled(cmd *Command) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[cmd.Name]
}

// parse splits content into prefix, invoked name and the remaining
// arguments. ok is false when content does not start with a prefix.
func (r *Router) parse(content string) (prefix, invokedWith, rest string, ok bool) {
	for _, p := range r.prefixes {
		if strings.HasPrefix(content, p) {
			prefix = p
			ok = true
			break
		}
	}
	if !ok {
		return "", "", "", false
	}
	content = strings.TrimLeftFunc(content[len(prefix):], unicode.IsSpace)
	end := strings.IndexFunc(content, unicode.IsSpace)
	if end < 0 {
		return prefix, content, "", true
	}
	return prefix, content[:end], content[end:], true
}

// Dispatch runs the command m invokes, if any. Failures are handed to
// Context.Reraise.
func (r *Router) Dispatch(ctx context.Context, b *Bot, m *discordgo.Message) {
	prefix, invokedWith, rest, ok := r.parse(m.Content)
	if !ok || invokedWith == "" {
		return
	}

	c := newContext(ctx, b, m)
	c.Prefix = prefix
	c.InvokedWith = invokedWith

	cmd, ok := r.Command(invokedWith)
	if !ok {
		c.Reraise(&CommandNotFoundError{Name: invokedWith})
		return
	}
	c.Command = cmd

	err := r.invoke(c, rest)
	if err != nil {
		c.Reraise(err)
	}
}

func (r *Router) invoke(c *Context, rest string) error {
	cmd := c.Command
	if r.isDisabled(cmd) {
		return &DisabledCommandError{Command: cmd.Name}
	}

	if cmd.OwnerOnly && !c.IsOwner() {
		return &NotOwnerError{}
	}
	if cmd.GuildOnly && c.Message.GuildID == "" {
		return &CheckFailureError{Check: "guild_only"}
	}
	for i, check := range cmd.Checks {
		ok, err := check(c)
		if err != nil {
			return errors.Wrapf(err, "check %d of %s", i, cmd.Name)
		}
		if !ok {
			return &CheckFailureError{Check: cmd.Name}
		}
	}

	if cmd.concurrency != nil {
		key := c.AuthorID()
		if !cmd.concurrency.acquire(key) {
			return &MaxConcurrencyReachedError{Limit: cmd.MaxConcurrency}
		}
		defer cmd.concurrency.release(key)
	}

	if cmd.cooldowns != nil {
		if retryAfter := cmd.cooldowns.updateRateLimit(c.Message, r.now()); retryAfter > 0 {
			return &CommandOnCooldownError{RetryAfter: retryAfter}
		}
	}

	if err := c.parseArgs(rest); err != nil {
		return err
	}
	return run(c)
}

// run calls the command, turning a panic into an error.
func run(c *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in command %s: %v", c.Command.Name, r)
		}
	}()
	return c.Command.Run(c)
}
