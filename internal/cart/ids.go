package cart

import (
	"sync"
	"time"
)

// IDGenerator hands out millisecond timestamps as item IDs, bumping by one
// when two IDs would collide so IDs stay strictly increasing.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Seed makes later IDs greater than every ID already in use.
func (g *IDGenerator) Seed(ids ...int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if id > g.last {
			g.last = id
		}
	}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
