package repository

import (
	"context"
	"sync/atomic"
	"time"

	"homestay/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRepository writes to primary until it fails, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverRepository struct {
	primary   domain.KVStore
	fallback  domain.KVStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverRepository(primary, fallback domain.KVStore, logger *zerolog.Logger) *FailoverRepository {
	return &FailoverRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// IsDegraded reports whether requests are currently served by the fallback.
func (r *FailoverRepository) IsDegraded() bool {
	return r.isDown.Load()
}

func (r *FailoverRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary store failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(r.now().UnixNano())
}

// shouldProbe reports whether primary is up or due for a recovery attempt.
func (r *FailoverRepository) shouldProbe() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	return r.now().Sub(last) > recoveryInterval
}

func (r *FailoverRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary store recovered")
	}
}

func (r *FailoverRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if r.shouldProbe() {
		val, found, err := r.primary.Get(ctx, key)
		if err == nil {
			r.recovered()
			return val, found, nil
		}
		r.markDown(err)
	}

	return r.fallback.Get(ctx, key)
}

func (r *FailoverRepository) Set(ctx context.Context, key, value string) error {
	if r.shouldProbe() {
		err := r.primary.Set(ctx, key, value)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Set(ctx, key, value)
}

func (r *FailoverRepository) Delete(ctx context.Context, key string) error {
	if r.shouldProbe() {
		err := r.primary.Delete(ctx, key)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Delete(ctx, key)
}
