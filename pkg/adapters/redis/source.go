package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lcampedelli/riposte/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Source implements ports.FactSource over a Redis hash. An out-of-process
// recognizer writes fields with HSET as it observes the screen; each poll
// reads the whole hash.
//
// Hash values are strings on the wire, so each field is decoded as JSON
// first (numbers, booleans, arrays survive) and kept as a raw string when
// that fails.
type Source struct {
	client *backend.Client
	key    string
}

// NewSource creates a fact source reading the given hash key.
func NewSource(client *backend.Client, key string) *Source {
	return &Source{client: client, key: key}
}

// Facts reads the current fact hash. A missing key is an empty context,
// not an error; the recognizer may simply not have published yet.
func (s *Source) Facts(ctx context.Context) (domain.Facts, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error reading facts: %w", err)
	}

	facts := make(domain.Facts, len(fields))
	for k, raw := range fields {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			facts[k] = raw
			continue
		}
		facts[k] = v
	}
	return facts, nil
}
