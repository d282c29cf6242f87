// Package state holds the in-memory reconciliation layer: reactive mirrors
// of the remote collections for the lifetime of an authenticated session.
package state

// Status is the lifecycle state of a manager's in-memory mirror.
type Status int

const (
	// StatusIdle — no authenticated user; the mirror is empty.
	StatusIdle Status = iota
	// StatusLoading — a load or mutation round trip is in flight.
	StatusLoading
	// StatusReady — the mirror reflects the last successful load or patch.
	StatusReady
	// StatusError — the last load failed; the mirror is empty.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
