package hub

import (
	"context"
	"errors"
	"sync"

	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/models"
)

// outcome records the settled result of one delivery attempt.
type outcome struct {
	conn models.Connection
	err  error
}

// fanOut pushes payload to every member concurrently and waits for every
// attempt to settle. No attempt is skipped or left pending; each carries its
// own bounded timeout.
func (e *Engine) fanOut(ctx context.Context, domain string, members []models.Connection, payload []byte) []outcome {
	outcomes := make([]outcome, len(members))

	var wg sync.WaitGroup
	for i, member := range members {
		wg.Add(1)
		go func(i int, member models.Connection) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, config.DeliveryTimeout)
			defer cancel()
			err := e.delivery.Send(sctx, domain, member.ConnectionID, payload)
			outcomes[i] = outcome{conn: member, err: err}
		}(i, member)
	}
	wg.Wait()

	return outcomes
}

// settle walks the fan-out outcomes: gone sessions are reaped from the
// registry, transient failures are logged, and the number of successful
// deliveries is returned.
func (e *Engine) settle(ctx context.Context, roomID string, outcomes []outcome) int {
	successCount := 0
	for _, o := range outcomes {
		switch {
		case o.err == nil:
			successCount++
		case errors.Is(o.err, ErrGone):
			if _, err := e.store.Remove(ctx, roomID, o.conn.ConnectionID); err != nil {
				e.log.Warn().Err(err).
					Str("connection", o.conn.ConnectionID).
					Msg("failed to reap stale connection")
			} else {
				e.log.Info().
					Str("connection", o.conn.ConnectionID).
					Str("room", roomID).
					Msg("reaped stale connection")
			}
		default:
			e.log.Warn().Err(o.err).
				Str("connection", o.conn.ConnectionID).
				Msg("delivery failed")
		}
	}
	return successCount
}
