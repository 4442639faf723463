package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lcampedelli/riposte/internal/logging"
	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/observability"
	"github.com/lcampedelli/riposte/pkg/ports"
)

// Hooks is the callback set the runner fires while draining events.
type Hooks = domain.LifecycleHooks

// Runner drives one machine aggregate: each polling tick it pulls facts
// from the source, evaluates rules, dispatches triggered actions and
// follows guarded transitions that opened up.
//
// The aggregate is not thread-safe, so every mutation goes through the
// runner's mutex; a DistributedLocker extends that discipline across
// replicas sharing a store.
type Runner struct {
	mu         sync.Mutex
	machine    *domain.Machine
	source     ports.FactSource
	dispatcher ports.ActionDispatcher

	store   ports.MachineStore
	locker  ports.DistributedLocker
	lockTTL time.Duration

	interval       time.Duration
	autoTransition bool
	logger         *slog.Logger
	metrics        *observability.Metrics
	hooks          Hooks
}

// Option configures the Runner.
type Option func(*Runner)

// WithInterval sets the polling tick (default 250ms).
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithStore persists a snapshot after every pass that mutated the machine.
func WithStore(store ports.MachineStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithLocker serializes passes across replicas. The TTL bounds how long a
// crashed holder can block the others.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(r *Runner) {
		r.locker = locker
		r.lockTTL = ttl
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks Hooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithAutoTransition controls whether the runner follows guarded
// transitions whose guard passes (default true). Unguarded edges are never
// auto-followed; they describe moves the host triggers deliberately.
func WithAutoTransition(enabled bool) Option {
	return func(r *Runner) {
		r.autoTransition = enabled
	}
}

// NewRunner creates a runner for the given machine.
func NewRunner(machine *domain.Machine, source ports.FactSource, dispatcher ports.ActionDispatcher, opts ...Option) *Runner {
	r := &Runner{
		machine:        machine,
		source:         source,
		dispatcher:     dispatcher,
		interval:       250 * time.Millisecond,
		autoTransition: true,
		lockTTL:        5 * time.Second,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Machine returns the aggregate the runner drives. While the runner is
// live, access it through Read and Apply instead; direct use races the
// polling pass.
func (r *Runner) Machine() *domain.Machine {
	return r.machine
}

// Interval returns the polling tick.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Run polls until the context is canceled. The first pass happens
// immediately rather than one interval in. Per-pass failures are logged and
// counted, never fatal; only cancellation ends the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner started",
		"machine", r.machine.Name,
		"interval", r.interval,
		"rules", len(r.machine.Rules()),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			r.logger.Warn("pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("runner stopped", "machine", r.machine.Name)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step runs a single polling pass: read facts from the source and evaluate.
func (r *Runner) Step(ctx context.Context) error {
	facts, err := r.source.Facts(ctx)
	if err != nil {
		r.metrics.ObserveFactSourceError()
		return err
	}
	_, err = r.EvaluateOnce(ctx, facts)
	return err
}

// EvaluateOnce runs one evaluation pass against explicit facts: triggered
// rules are dispatched, guarded transitions followed, events drained and
// the machine persisted if it changed. It returns the rules whose condition
// held, in priority order.
func (r *Runner) EvaluateOnce(ctx context.Context, facts domain.Facts) ([]*domain.Rule, error) {
	var triggered []*domain.Rule
	err := r.Apply(ctx, func(m *domain.Machine) error {
		start := time.Now()
		triggered = m.EvaluateRules(facts)
		for _, rule := range triggered {
			res := rule.Execute(ctx, facts, r.dispatcher)
			if !res.OK {
				r.metrics.ObserveDispatchError(rule.Action)
				r.logger.Warn("action dispatch failed",
					"rule", rule.Name,
					"action", rule.Action,
					"error", res.Err,
				)
			}
		}
		if r.autoTransition {
			r.followTransitions(facts)
		}
		r.metrics.ObserveEvaluationPass(time.Since(start).Seconds())
		return nil
	})
	return triggered, err
}

// Read runs fn against the machine while holding the runner's mutex, so
// callers can inspect state without racing a concurrent pass. fn must not
// mutate the machine and must not retain it past the call.
func (r *Runner) Read(fn func(m *domain.Machine)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.machine)
}

// Apply runs fn against the machine while holding the runner's mutex and,
// when configured, the distributed lock. Events recorded by fn are drained
// and the machine is saved if its version moved, even when fn errors.
func (r *Runner) Apply(ctx context.Context, fn func(m *domain.Machine) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, r.machine.ID, r.lockTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("failed to release lock", "machine", r.machine.ID, "error", err)
			}
		}()
	}

	versionBefore := r.machine.Version
	fnErr := fn(r.machine)

	r.drainEvents(ctx)

	if r.store != nil && r.machine.Version != versionBefore {
		if err := r.store.Save(ctx, r.machine); err != nil {
			if fnErr != nil {
				return errors.Join(fnErr, err)
			}
			return err
		}
	}
	return fnErr
}

// followTransitions walks guarded edges whose guard passes, first declared
// wins, until the current state has none left open. The visited set stops a
// guard cycle from spinning forever inside one pass.
func (r *Runner) followTransitions(facts domain.Facts) {
	visited := map[string]bool{r.machine.CurrentStateID(): true}
	for {
		var next *domain.Transition
		for _, t := range r.machine.TraversableTransitions(facts) {
			if t.Guard == nil || visited[t.To] {
				continue
			}
			next = t
			break
		}
		if next == nil {
			return
		}
		if err := r.machine.TransitionTo(next.To, next.Description); err != nil {
			r.logger.Warn("auto transition rejected", "to", next.To, "error", err)
			return
		}
		visited[next.To] = true
	}
}

// drainEvents empties the outbox into logs, metrics and hooks.
func (r *Runner) drainEvents(ctx context.Context) {
	events := r.machine.Events()
	if len(events) == 0 {
		return
	}
	r.machine.ClearEvents()

	for _, e := range events {
		switch ev := e.(type) {
		case domain.RuleTriggered:
			r.metrics.ObserveRuleTriggered(ev.RuleName, ev.Action)
			r.logger.Info("rule triggered", "rule", ev.RuleName, "action", ev.Action, "priority", ev.Priority)
			if r.hooks.OnRuleTriggered != nil {
				r.hooks.OnRuleTriggered(ctx, ev)
			}
		case domain.Transitioned:
			to := ev.To
			if s := r.machine.StateByID(ev.To); s != nil {
				to = s.Name
			}
			r.metrics.ObserveTransition(to)
			r.logger.Info("state changed", "to", to, "description", ev.Description)
			if r.hooks.OnTransition != nil {
				r.hooks.OnTransition(ctx, ev)
			}
		default:
			r.logger.Debug("event", "type", string(e.Type()))
		}
	}
}
