package riposte

import (
	"context"
	"log/slog"
	"time"

	"github.com/lcampedelli/riposte/internal/logging"
	"github.com/lcampedelli/riposte/internal/runtime"
	"github.com/lcampedelli/riposte/pkg/adapters/memory"
	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/dsl"
	"github.com/lcampedelli/riposte/pkg/observability"
	"github.com/lcampedelli/riposte/pkg/ports"
)

// Version is the library version, overridable at build time.
var Version = "dev"

// Engine is the high-level entry point for the library. It wraps the
// internal runtime and provides a simplified API for hosts that embed the
// decision engine instead of running the CLI.
type Engine struct {
	machine    *domain.Machine
	runner     *runtime.Runner
	dispatcher ports.ActionDispatcher
	source     ports.FactSource
	store      ports.MachineStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	hooks      domain.LifecycleHooks
	autoMove   *bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithDispatcher injects the action dispatcher that performs triggered
// actions. Defaults to an empty in-memory registry, where every action
// fails until a handler is registered.
func WithDispatcher(d ports.ActionDispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithFactSource injects the fact source polled by Run. Defaults to an
// empty in-memory source.
func WithFactSource(s ports.FactSource) Option {
	return func(e *Engine) {
		e.source = s
	}
}

// WithStore persists the machine after every mutating pass.
func WithStore(s ports.MachineStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes passes across replicas sharing a store.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPollInterval sets the polling tick used by Run.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithAutoTransition controls whether Run follows guarded transitions whose
// guard passes (default true).
func WithAutoTransition(enabled bool) Option {
	return func(e *Engine) {
		e.autoMove = &enabled
	}
}

// New wraps an already-built machine. The machine should be active before
// Run is called; rules evaluate to nothing on a draft.
func New(machine *domain.Machine, opts ...Option) (*Engine, error) {
	if machine == nil {
		return nil, domain.NewValidationError("machine", "machine cannot be nil")
	}

	e := &Engine{
		machine: machine,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = memory.NewDispatcher()
	}
	if e.source == nil {
		e.source = memory.NewSource(nil)
	}

	runnerOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithHooks(e.hooks),
	}
	if e.interval > 0 {
		runnerOpts = append(runnerOpts, runtime.WithInterval(e.interval))
	}
	if e.metrics != nil {
		runnerOpts = append(runnerOpts, runtime.WithMetrics(e.metrics))
	}
	if e.store != nil {
		runnerOpts = append(runnerOpts, runtime.WithStore(e.store))
	}
	if e.locker != nil {
		runnerOpts = append(runnerOpts, runtime.WithLocker(e.locker, e.lockTTL))
	}
	if e.autoMove != nil {
		runnerOpts = append(runnerOpts, runtime.WithAutoTransition(*e.autoMove))
	}

	e.runner = runtime.NewRunner(machine, e.source, e.dispatcher, runnerOpts...)
	return e, nil
}

// Load builds an engine from a YAML definition file and activates the
// machine.
func Load(path string, opts ...Option) (*Engine, error) {
	machine, err := dsl.Load(path)
	if err != nil {
		return nil, err
	}
	if err := machine.Activate(); err != nil {
		return nil, err
	}
	return New(machine, opts...)
}

// Machine returns the underlying aggregate.
func (e *Engine) Machine() *domain.Machine {
	return e.machine
}

// Runner exposes the internal polling runner, for hosts that serve it over
// HTTP or need direct Apply access.
func (e *Engine) Runner() *runtime.Runner {
	return e.runner
}

// Run polls the fact source until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	return e.runner.Run(ctx)
}

// EvaluateOnce runs a single evaluation pass against explicit facts,
// bypassing the fact source. It returns the rules whose condition held, in
// priority order.
func (e *Engine) EvaluateOnce(ctx context.Context, facts domain.Facts) ([]*domain.Rule, error) {
	return e.runner.EvaluateOnce(ctx, facts)
}

// TransitionTo moves the machine to the named state and persists the
// result. The target may be a state name or a state ID.
func (e *Engine) TransitionTo(ctx context.Context, target, description string) error {
	return e.runner.Apply(ctx, func(m *domain.Machine) error {
		if state := m.StateByName(target); state != nil {
			target = state.ID
		}
		return m.TransitionTo(target, description)
	})
}

// Reset moves the machine back to its initial state and persists the
// result.
func (e *Engine) Reset(ctx context.Context) error {
	return e.runner.Apply(ctx, func(m *domain.Machine) error {
		m.Reset()
		return nil
	})
}
