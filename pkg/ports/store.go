package ports

import (
	"context"

	"github.com/lcampedelli/riposte/pkg/domain"
)

// MachineStore persists machine aggregates by ID.
//
// Save enforces optimistic concurrency: when the store already holds the
// machine at the same or a newer version than the one being saved, Save
// returns domain.ErrVersionConflict and the writer must reload and retry.
// Every mutation bumps the version, so a legitimate save is always strictly
// newer than the stored copy; an equal version means another writer saved
// against the same base first. A save of an unknown ID always succeeds.
type MachineStore interface {
	// Save persists the machine snapshot, rejecting stale versions with
	// domain.ErrVersionConflict.
	Save(ctx context.Context, m *domain.Machine) error

	// Load rebuilds the machine for the given ID.
	// Returns domain.ErrMachineNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Machine, error)

	// Delete removes the machine for the given ID.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored machine.
	List(ctx context.Context) ([]string, error)
}
