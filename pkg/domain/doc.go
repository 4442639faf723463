/*
Package domain contains the decision engine's core model: the Machine
aggregate and the states, transitions and rules it owns.

This package is kept pure and free of I/O, following Hexagonal Architecture
principles. A Machine is fed a Facts context (typically produced by an
external recognition subsystem), evaluates its guarded transitions and
priority-ordered rules against it, and records what happened as domain
events on an append-only outbox drained by the caller.

# Key Entities

  - Condition: an immutable leaf predicate (fact, operator, expected value).
  - State: a named context node with a small key/value fact store.
  - Transition: a directed, optionally guarded edge between two states.
  - Rule: a priority-ordered pairing of a condition with an opaque action.
  - Machine: the aggregate root enforcing every invariant over the above.

The aggregate is not internally thread-safe: one machine instance is meant
to be driven by a single polling loop, or externally serialized.
*/
package domain
