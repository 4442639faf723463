package ports

import (
	"context"
	"testing"

	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMachineStoreContract runs a suite of tests verifying that a
// MachineStore implementation adheres to the interface contract, including
// the optimistic-concurrency behavior of Save.
func RunMachineStoreContract(t *testing.T, store MachineStore) {
	ctx := context.Background()

	newMachine := func(t *testing.T) *domain.Machine {
		t.Helper()
		m, err := domain.NewMachine("contract-machine")
		require.NoError(t, err)
		require.NoError(t, m.AddState(domain.NewState("Working", "")))
		require.NoError(t, m.AddTransition(domain.NewTransition(m.InitialStateID(), m.StateByName("Working").ID, "")))
		return m
	}

	t.Run("Save and Load", func(t *testing.T) {
		m := newMachine(t)
		require.NoError(t, m.StateByName("Working").SetValue("screen", "inventory"))

		require.NoError(t, store.Save(ctx, m))

		loaded, err := store.Load(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, loaded.ID)
		assert.Equal(t, m.Status(), loaded.Status())
		assert.Equal(t, m.Version, loaded.Version)
		assert.Equal(t, m.CurrentStateID(), loaded.CurrentStateID())
		require.NotNil(t, loaded.StateByName("Working"))
		// JSON backends may widen numbers; the key must survive either way.
		assert.True(t, loaded.StateByName("Working").HasValue("screen"))

		t.Cleanup(func() { _ = store.Delete(ctx, m.ID) })
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-machine")
		assert.ErrorIs(t, err, domain.ErrMachineNotFound)
	})

	t.Run("Stale Save Rejected", func(t *testing.T) {
		m := newMachine(t)
		require.NoError(t, store.Save(ctx, m))
		t.Cleanup(func() { _ = store.Delete(ctx, m.ID) })

		// Advance the stored copy.
		require.NoError(t, m.Activate())
		require.NoError(t, store.Save(ctx, m))

		// A writer holding the old version must be rejected.
		stale, err := domain.RestoreMachine(m.Snapshot())
		require.NoError(t, err)
		stale.Version = m.Version - 1
		assert.ErrorIs(t, store.Save(ctx, stale), domain.ErrVersionConflict)

		// The stored copy is untouched.
		loaded, err := store.Load(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, m.Version, loaded.Version)
		assert.Equal(t, domain.StatusActive, loaded.Status())
	})

	t.Run("Concurrent Save Rejected", func(t *testing.T) {
		m := newMachine(t)
		require.NoError(t, m.Activate())
		require.NoError(t, store.Save(ctx, m))
		t.Cleanup(func() { _ = store.Delete(ctx, m.ID) })

		// Two writers start from the same stored version and each make one
		// mutation, ending at the same version number.
		first, err := store.Load(ctx, m.ID)
		require.NoError(t, err)
		second, err := store.Load(ctx, m.ID)
		require.NoError(t, err)

		require.NoError(t, first.TransitionTo(first.StateByName("Working").ID, ""))
		require.NoError(t, second.Deactivate())
		require.Equal(t, first.Version, second.Version)

		require.NoError(t, store.Save(ctx, first))
		assert.ErrorIs(t, store.Save(ctx, second), domain.ErrVersionConflict,
			"a save at the stored version must not overwrite the first writer")

		// The first writer's update survives.
		loaded, err := store.Load(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, first.CurrentStateID(), loaded.CurrentStateID())
		assert.Equal(t, domain.StatusActive, loaded.Status())
	})

	t.Run("Delete", func(t *testing.T) {
		m := newMachine(t)
		require.NoError(t, store.Save(ctx, m))

		require.NoError(t, store.Delete(ctx, m.ID))

		_, err := store.Load(ctx, m.ID)
		assert.ErrorIs(t, err, domain.ErrMachineNotFound, "Load after Delete should return ErrMachineNotFound")
	})

	t.Run("List", func(t *testing.T) {
		m1 := newMachine(t)
		m2 := newMachine(t)
		require.NoError(t, store.Save(ctx, m1))
		require.NoError(t, store.Save(ctx, m2))

		t.Cleanup(func() {
			_ = store.Delete(ctx, m1.ID)
			_ = store.Delete(ctx, m2.ID)
		})

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, m1.ID)
		assert.Contains(t, ids, m2.ID)
	})
}
