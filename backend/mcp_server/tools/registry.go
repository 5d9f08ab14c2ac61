package tools

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// unknownTool tags metrics of calls to a name the registry does not hold.
const unknownTool = "unknown"

// Registry is the immutable set of tools served by one tool server.
type Registry struct {
	name    string
	version string
	tools   map[string]*Tool
	order   []string
}

// NewRegistry creates a registry for the server name/version holding list.
// Tool names must be unique and every tool needs a Call and a Normalize.
func NewRegistry(name, version string, list ...*Tool) (*Registry, error) {
	r := &Registry{
		name:    name,
		version: version,
		tools:   make(map[string]*Tool, len(list)),
	}
	for _, t := range list {
		if t == nil || t.Name == "" {
			return nil, errors.New("tool name cannot be empty")
		}
		if t.Call == nil || t.Normalize == nil {
			return nil, errors.Newf("tool %q is missing its handler", t.Name)
		}
		if _, exists := r.tools[t.Name]; exists {
			return nil, errors.Newf("tool with name %q already exists", t.Name)
		}
		r.tools[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	sort.Strings(r.order)
	return r, nil
}

// Name returns the server display name.
func (r *Registry) Name() string {
	return r.name
}

// Version returns the server version.
func (r *Registry) Version() string {
	return r.version
}

// ListTools returns the definitions of all tools, sorted by name.
func (r *Registry) ListTools() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Invoke dispatches to the tool called name. An unknown name returns an
// ErrNotFound error without touching any tool.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any, reporter Reporter) (*Envelope, error) {
	t, ok := r.tools[name]
	if !ok {
		StatsToolCallsNotFound.IncrCounter(1, unknownTool)
		return nil, errors.Mark(errors.Newf("tool %q not found", name), ErrNotFound)
	}

	started := time.Now()
	defer PerfToolCall.MeasureSince(started, name)

	env, err := t.Invoke(ctx, args, reporter)
	switch {
	case err == nil:
		StatsToolCallsSucceeded.IncrCounter(1, name)
	case errors.Is(err, ErrValidation):
		StatsToolCallsRejected.IncrCounter(1, name)
	default:
		StatsToolCallsFailed.IncrCounter(1, name)
	}
	return env, err
}
