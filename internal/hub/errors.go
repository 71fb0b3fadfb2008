package hub

import "errors"

// ErrEmptyMessage rejects a send whose text is empty after trimming. The
// rejection happens before any append, so the log is untouched.
var ErrEmptyMessage = errors.New("message cannot be empty")

// ErrGone is returned (possibly wrapped) by a DeliveryChannel when the remote
// session is confirmed unreachable. It triggers reaping of the registry entry
// and is never surfaced to the sender as a failure.
var ErrGone = errors.New("connection gone")
