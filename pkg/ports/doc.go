/*
Package ports defines the driven ports (interfaces) for the riposte engine.

These interfaces decouple the decision core from external implementations,
allowing the engine to work with various persistence backends, fact
providers and action runtimes.

# Key Interfaces

  - MachineStore: persists machine snapshots with optimistic concurrency.
  - ActionDispatcher: resolves opaque action references into real input.
  - FactSource: supplies the facts observed by a recognition subsystem.
  - DistributedLocker: serializes evaluation passes across replicas.
*/
package ports
