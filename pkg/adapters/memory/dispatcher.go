package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// Dispatcher implements ports.ActionDispatcher with a named handler
// registry. Hosts register a handler per action reference; dispatching an
// unknown action is an error so misconfigured rules surface immediately.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]domain.DispatchFunc
}

// NewDispatcher creates an empty registry dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]domain.DispatchFunc),
	}
}

// Register binds a handler to an action reference, replacing any previous
// binding.
func (d *Dispatcher) Register(action string, handler domain.DispatchFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[action] = handler
}

// Dispatch resolves the action reference and runs its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, action string, facts domain.Facts) (any, error) {
	d.mu.RLock()
	handler, ok := d.handlers[action]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler registered for action %q", action)
	}
	return handler(ctx, action, facts)
}

// Actions returns the registered action references.
func (d *Dispatcher) Actions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	return out
}
