package commit

import "fmt"

// Status classifies the outcome of a graph service call
type Status int

const (
	// StatusOK means the call succeeded
	StatusOK Status = iota
	// StatusRetryable means every attempt answered 503; a later call may succeed
	StatusRetryable
	// StatusTerminal means the call failed in a way retrying will not fix
	StatusTerminal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRetryable:
		return "retryable"
	case StatusTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned by every client operation instead of an error. Callers
// must check OK before treating the remote graph as up to date.
type Result struct {
	Status   Status
	URL      string // canonical graph page, set on success for graph-scoped calls
	Reason   string // failure description, empty on success
	Attempts int
}

// OK reports whether the call succeeded
func (r Result) OK() bool {
	return r.Status == StatusOK
}
