package idempotency

import (
	"context"
	"log"
	"time"
)

// Sweeper deletes expired records on a fixed cadence. The guard's lazy expiry
// check at lookup is authoritative; the sweep only keeps the table small.
type Sweeper struct {
	store Store
	every time.Duration
}

func NewSweeper(store Store, every time.Duration) *Sweeper {
	return &Sweeper{store: store, every: every}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.store.DeleteExpired(now)
			if err != nil {
				log.Printf("idempotency sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("idempotency sweep removed %d expired records", n)
			}
		}
	}
}
