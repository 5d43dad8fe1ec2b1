package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// runReaper deletes expired sessions and mail verifications until ctx is done.
// Validation already rejects expired rows, this only keeps the tables small.
func runReaper(ctx context.Context, interval time.Duration, log zerolog.Logger, purgers ...purger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping expiry reaper")
			return
		case <-ticker.C:
			reap(ctx, log, purgers)
		}
	}
}

func reap(ctx context.Context, log zerolog.Logger, purgers []purger) {
	reapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var total int64
	for _, p := range purgers {
		count, err := p.PurgeExpired(reapCtx)
		if err != nil {
			log.Error().Err(err).Msg("expiry reaper failed")
			continue
		}
		total += count
	}

	log.Debug().Int64("deleted", total).Msg("expiry reaper completed")
}
