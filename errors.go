package spillcache

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrClosed is returned by Close when the store was already closed.
var ErrClosed = errors.New("spillcache: store is closed")

// OpError describes a failed store operation on one entry.
// Stores hand it to Hooks.WorkerFault and the logger; it never reaches cache callers.
type OpError struct {
	Op  string
	ID  uuid.UUID
	Key string
	Err error
}

func (e *OpError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s/%q: %v", e.Op, e.ID, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
