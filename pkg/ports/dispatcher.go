package ports

import "github.com/lcampedelli/riposte/pkg/domain"

// ActionDispatcher resolves an opaque action reference against the current
// facts and performs it. The engine emits action references; the host (an
// input-simulation runtime) implements this interface to play them.
type ActionDispatcher = domain.ActionDispatcher

// DispatchFunc adapts a plain function to an ActionDispatcher.
type DispatchFunc = domain.DispatchFunc
