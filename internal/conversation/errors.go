package conversation

import "errors"

var (
	// ErrInvalidInput marks input that does not have the expected form
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a well formed id that references nothing
	ErrNotFound = errors.New("not found")
	// ErrOutOfRange marks a number outside the accepted range
	ErrOutOfRange = errors.New("out of range")
)

// rejection is a validation failure carrying the reply shown to the user
type rejection struct {
	kind  error
	reply string
}

func (r *rejection) Error() string { return r.kind.Error() + ": " + r.reply }
func (r *rejection) Unwrap() error { return r.kind }

func reject(kind error, reply string) error {
	return &rejection{kind: kind, reply: reply}
}
