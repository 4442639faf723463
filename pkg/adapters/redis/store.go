package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lcampedelli/riposte/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// saveScript stores the snapshot only when the incoming version is strictly
// newer than the stored one; every mutation bumps the version, so an equal
// version means a concurrent writer already saved against the same base.
// KEYS[1] = snapshot key, KEYS[2] = version key, ARGV[1] = snapshot JSON,
// ARGV[2] = version, ARGV[3] = ttl millis (0 = none).
const saveScript = `
local stored = redis.call("GET", KEYS[2])
if stored and tonumber(stored) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
	redis.call("PEXPIRE", KEYS[2], ARGV[3])
end
return 1
`

// Store implements ports.MachineStore using Redis. Snapshots are stored as
// JSON; the version lives in a sibling key so the compare-and-set script
// never has to parse the payload.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for stored machines.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored machines.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "riposte:machine:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) versionKey(id string) string {
	return s.prefix + id + ":version"
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the machine snapshot, rejecting stale versions.
func (s *Store) Save(ctx context.Context, m *domain.Machine) error {
	snap := m.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal machine: %w", err)
	}

	keys := []string{s.key(snap.ID), s.versionKey(snap.ID)}
	args := []any{string(data), snap.Version, s.ttl.Milliseconds()}
	ok, err := s.client.Eval(ctx, saveScript, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("redis error saving machine: %w", err)
	}
	if ok == 0 {
		return domain.ErrVersionConflict
	}
	if err := s.client.SAdd(ctx, s.indexKey(), snap.ID).Err(); err != nil {
		return fmt.Errorf("redis error updating machine index: %w", err)
	}
	return nil
}

// Load rebuilds the machine from its stored snapshot.
func (s *Store) Load(ctx context.Context, id string) (*domain.Machine, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == backend.Nil {
		return nil, domain.ErrMachineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error loading machine: %w", err)
	}

	var snap domain.MachineSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal machine %s: %w", id, err)
	}
	return domain.RestoreMachine(snap)
}

// Delete removes the machine and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id), s.versionKey(id))
	pipe.SRem(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error deleting machine: %w", err)
	}
	return nil
}

// List returns the IDs in the index, pruning entries whose payload expired.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error listing machines: %w", err)
	}

	alive := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error checking machine %s: %w", id, err)
		}
		if exists == 0 {
			_ = s.client.SRem(ctx, s.indexKey(), id).Err()
			continue
		}
		alive = append(alive, id)
	}
	return alive, nil
}
