package session

import (
	"context"
	"time"
)

// RunTimer ticks m once per interval until the session ends or ctx is
// cancelled. It returns ctx.Err() on cancellation and nil otherwise.
func RunTimer(ctx context.Context, m *Machine, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.Done():
			return nil
		case <-ticker.C:
			if m.Tick() {
				return nil
			}
		}
	}
}
