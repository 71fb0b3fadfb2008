package hub

import "context"

// DeliveryChannel pushes a payload to a single connected session. It is the
// engine's only view of the transport.
//
// An error matching ErrGone means the session is confirmed unreachable and
// its registry entry should be reaped. Any other error is transient: it is
// logged and counted as a failed delivery, never retried here.
//
// domain identifies the reply endpoint of the transport that originated the
// event; local transports may ignore it. Implementations must bound each
// attempt (the passed context carries a deadline) so one slow recipient
// cannot stall a fan-out.
type DeliveryChannel interface {
	Send(ctx context.Context, domain, connectionID string, payload []byte) error
}
