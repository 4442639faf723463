package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lcampedelli/riposte/pkg/adapters/redis"
	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)
	ports.RunMachineStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	m, err := domain.NewMachine("ttl-machine")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, m))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, m.ID)

	// miniredis does not advance time on its own.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, m.ID)
	assert.ErrorIs(t, err, domain.ErrMachineNotFound)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, m.ID, "expired machines are pruned from the index")
}

func TestRedisStore_VersionConflict(t *testing.T) {
	_, client := newTestClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	m, err := domain.NewMachine("conflict-machine")
	require.NoError(t, err)
	require.NoError(t, m.AddState(domain.NewState("Working", "")))
	require.NoError(t, m.AddTransition(domain.NewTransition(m.InitialStateID(), m.StateByName("Working").ID, "")))
	require.NoError(t, store.Save(ctx, m))

	// Two replicas load the same version.
	a, err := store.Load(ctx, m.ID)
	require.NoError(t, err)
	b, err := store.Load(ctx, m.ID)
	require.NoError(t, err)

	// Replica A wins with two bumps; replica B's single bump is stale.
	require.NoError(t, a.Activate())
	require.NoError(t, a.TransitionTo(a.StateByName("Working").ID, ""))
	require.NoError(t, store.Save(ctx, a))

	require.NoError(t, b.Activate())
	assert.ErrorIs(t, store.Save(ctx, b), domain.ErrVersionConflict)

	loaded, err := store.Load(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Version, loaded.Version)
	assert.Equal(t, a.CurrentStateID(), loaded.CurrentStateID())
}
