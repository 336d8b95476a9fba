package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// memoryStateRepository keeps JSON copies so callers never share memory with
// the store, same as the Postgres implementation.
type memoryStateRepository struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStateRepository() StateRepository {
	return &memoryStateRepository{values: make(map[string][]byte)}
}

func (r *memoryStateRepository) Get(ctx context.Context, key string, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.RLock()
	raw, ok := r.values[key]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrStateNotFound, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode state %s: %w", key, err)
	}
	return nil
}

func (r *memoryStateRepository) Put(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state %s: %w", key, err)
	}
	r.mu.Lock()
	r.values[key] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryStateRepository) Apply(ctx context.Context, batch StateBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded, err := encodeBatch(ctx, batch.Puts)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, raw := range encoded {
		r.values[key] = raw
	}
	for _, key := range batch.Deletes {
		delete(r.values, key)
	}
	return nil
}
