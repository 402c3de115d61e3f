package fetch

import "errors"

var (
	// ErrCanceled is returned when a request was superseded by a newer one or
	// its caller's context ended. It is not a failure.
	ErrCanceled = errors.New("fetch canceled")

	// ErrFetchFailed wraps the last producer error once retries are exhausted.
	ErrFetchFailed = errors.New("fetch failed")
)

func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; Request surfaces it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
