package queue

import "errors"

// ErrBrokerClosed is returned for operations on a closed broker
var ErrBrokerClosed = errors.New("broker is closed")

// PermanentError marks a job failure that must not be retried, such as a
// data-consistency problem (referenced review or product missing).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the supervisor skips the retry/backoff policy
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries the no-retry marker
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
