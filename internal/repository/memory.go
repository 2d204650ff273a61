package repository

import (
	"context"
	"sync"
)

// MemoryRepository keeps values in process memory. It backs tests and acts
// as the failover target when the durable store is unreachable.
type MemoryRepository struct {
	values sync.Map
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Get(ctx context.Context, key string) (string, bool, error) {
	val, ok := r.values.Load(key)
	if !ok {
		return "", false, nil
	}
	return val.(string), true, nil
}

func (r *MemoryRepository) Set(ctx context.Context, key, value string) error {
	r.values.Store(key, value)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.values.Delete(key)
	return nil
}
