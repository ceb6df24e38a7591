package storage

import "errors"

// ErrPersistence tags every failure reported by the storage engine. The
// original driver error stays reachable through errors.Is and errors.As.
var ErrPersistence = errors.New("persistence failure")

func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrPersistence, &OpError{Op: op, Err: err})
}

// OpError names the storage operation that failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }
