package tokens

import (
	"context"
	"fmt"
	"time"

	"docmerge/internal/infra/logging"
)

// Reload fetches the token set from src and installs it.
func (s *Store) Reload(ctx context.Context, src Source) error {
	m, err := src.LoadTokens(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	s.Replace(m)
	return nil
}

// RefreshPeriodically reloads the tokens every interval until ctx is done.
// Failed reloads keep the previous token set.
func (s *Store) RefreshPeriodically(ctx context.Context, src Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Reload(ctx, src); err != nil {
				logging.Error("Failed to reload API tokens", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
