// Package commands is the editor console: a registry of flag-parsed
// subcommands and the editor commands that drive the scene.
package commands

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Command is a subcommand with its own flags and a Run function.
// Flags are defined on FlagSet; Run is called after Parse and can read flag
// state and positional arguments through FlagSet.Args.
type Command struct {
	Name    string
	Usage   string
	FlagSet *flag.FlagSet
	Run     func() error
}

// Registry holds subcommands by name. Add commands with Register; run with Execute.
// Execute may be called from several goroutines; commands run one at a time.
type Registry struct {
	cmds map[string]*Command
	// execMu is held across Parse and Run: flag state lives in the shared FlagSet.
	execMu sync.Mutex
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Command)}
}

// Register adds a subcommand. name is the first token of a console line
// (e.g. "grid"). fs is that command's FlagSet, or nil when it takes no flags;
// run is called after fs.Parse(args[1:]) succeeds.
func (r *Registry) Register(name, usage string, fs *flag.FlagSet, run func() error) {
	if fs == nil {
		fs = flag.NewFlagSet(name, flag.ContinueOnError)
	}
	fs.SetOutput(io.Discard)
	r.cmds[name] = &Command{Name: name, Usage: usage, FlagSet: fs, Run: run}
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Usage returns the one-line usage of name, or "" when it is not registered.
func (r *Registry) Usage(name string) string {
	if cmd, ok := r.cmds[name]; ok {
		return cmd.Usage
	}
	return ""
}

// Parse splits a console line into arguments. Blank lines and "#" comments
// yield ok false.
func Parse(line string) (args []string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return strings.Fields(line), true
}

// Execute runs the subcommand in args[0] with args[1:] as flag/positional arguments.
// Returns an error for unknown command, parse error, or from Run().
func (r *Registry) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	name := args[0]
	cmd, ok := r.cmds[name]
	if !ok {
		return fmt.Errorf("unknown command: %s (try help)", name)
	}
	r.execMu.Lock()
	defer r.execMu.Unlock()
	if err := cmd.FlagSet.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return cmd.Run()
}
