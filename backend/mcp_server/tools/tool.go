package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/aistudiolabx/mcp-tools", "tools")

// Definition is the immutable, advertised part of a tool.
type Definition struct {
	Name        string
	Description string
	Params      Schema
}

// Caller performs exactly one upstream request and returns its raw body.
type Caller func(ctx context.Context, args Args) ([]byte, error)

// Normalizer maps a raw upstream body to the tool's result. It must
// substitute defaults for missing optional fields and return an
// ErrUpstreamShape error when the required top-level structure is absent.
type Normalizer func(args Args, body []byte) (Result, error)

// Messages are the progress messages of a tool.
type Messages struct {
	Started    string
	Processing string
	Done       string
}

// Tool is a named operation: its definition plus the capabilities to
// call the upstream and normalize its answer.
type Tool struct {
	Definition
	Messages Messages
	// FailureMessage is what callers see when the upstream call or the
	// normalization fails.
	FailureMessage string

	Call      Caller
	Normalize Normalizer
}

// State is a step of an invocation.
type State int

// Invocation states. Transitions are strictly sequential, with an edge to
// Failed from any non-terminal state.
const (
	StateIdle State = iota
	StateValidating
	StateCalling
	StateNormalizing
	StateReporting
	StateCompleted
	StateFailed
)

var stateNames = [...]string{"idle", "validating", "calling", "normalizing", "reporting", "completed", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (m Messages) withDefaults() Messages {
	if m.Started == "" {
		m.Started = "started"
	}
	if m.Processing == "" {
		m.Processing = "processing"
	}
	if m.Done == "" {
		m.Done = "done"
	}
	return m
}

// Invoke runs one invocation of t: validate, call, normalize, report.
// A ValidationError is returned before any upstream request. Upstream and
// normalization failures are logged and returned as *InvocationError.
func (t *Tool) Invoke(ctx context.Context, raw map[string]any, reporter Reporter) (*Envelope, error) {
	if reporter == nil {
		reporter = Discard
	}
	inv := &invocation{tool: t, state: StateIdle, progress: &monotonic{next: reporter}}
	env, err := inv.run(ctx, raw)
	if err != nil {
		inv.fail(ctx, err)
		return nil, err
	}
	return env, nil
}

type invocation struct {
	tool     *Tool
	state    State
	progress *monotonic
}

func (inv *invocation) enter(s State) {
	inv.state = s
}

func (inv *invocation) run(ctx context.Context, raw map[string]any) (*Envelope, error) {
	t := inv.tool
	msgs := t.Messages.withDefaults()

	inv.enter(StateValidating)
	args, err := t.Params.Validate(raw)
	if err != nil {
		return nil, err
	}

	inv.progress.report(ctx, 10, msgs.Started)

	inv.enter(StateCalling)
	body, err := t.Call(ctx, args)
	if err != nil {
		if !errors.Is(err, ErrUpstreamShape) {
			err = errors.Mark(err, ErrUpstreamTransport)
		}
		return nil, inv.failure(err)
	}

	inv.progress.report(ctx, 50, msgs.Processing)

	inv.enter(StateNormalizing)
	res, err := t.Normalize(args, body)
	if err != nil {
		if !errors.Is(err, ErrUpstreamShape) {
			err = errors.Mark(err, ErrUpstreamShape)
		}
		return nil, inv.failure(err)
	}

	inv.enter(StateReporting)
	text, err := res.Text()
	if err != nil {
		return nil, inv.failure(err)
	}
	inv.progress.report(ctx, ProgressTotal, msgs.Done)

	inv.enter(StateCompleted)
	return TextEnvelope(text), nil
}

func (inv *invocation) failure(cause error) error {
	return &InvocationError{Tool: inv.tool.Name, Message: inv.tool.FailureMessage, cause: cause}
}

func (inv *invocation) fail(ctx context.Context, err error) {
	failedIn := inv.state
	inv.enter(StateFailed)
	if failedIn == StateValidating {
		logger.ContextKV(ctx, xlog.DEBUG, "tool", inv.tool.Name, "reason", "validation", "err", err.Error())
		return
	}
	detail := err.Error()
	var ie *InvocationError
	if errors.As(err, &ie) && ie.cause != nil {
		detail = ie.cause.Error()
	}
	logger.ContextKV(ctx, xlog.ERROR,
		"tool", inv.tool.Name,
		"state", failedIn.String(),
		"err", detail,
	)
}
