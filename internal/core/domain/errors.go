package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business rule failures. Transport failures are
// not redefined here; they cross the ports wrapped but otherwise intact.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCreatedUnbounded indicates a filter cannot be partitioned because
	// its creation-date range is open on at least one side. Exhaustive
	// retrieval needs a measurable window to bisect.
	ErrCreatedUnbounded = errors.New("created range must be bounded on both sides")

	// ErrCreatedEmpty indicates the creation-date range has no width.
	ErrCreatedEmpty = errors.New("created range is empty")
)

// DenseWindowError reports a creation-date window that exceeds the
// partition cap but is already at the wire format's millisecond
// resolution and cannot be bisected further. Retrieval cannot be
// complete past such a window, so the whole operation fails.
type DenseWindowError struct {
	Start time.Time
	End   time.Time
	Count int
	Cap   int
}

func (e *DenseWindowError) Error() string {
	return fmt.Sprintf("window [%s, %s) holds %d repositories, over the cap of %d, and cannot be split further",
		e.Start.UTC().Format(WireTimeLayout), e.End.UTC().Format(WireTimeLayout), e.Count, e.Cap)
}

// IsDenseWindow reports whether err is, or wraps, a DenseWindowError.
func IsDenseWindow(err error) bool {
	var dense *DenseWindowError
	return errors.As(err, &dense)
}
