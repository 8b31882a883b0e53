package errors

import (
	"errors"
	"sync"
)

// ErrorCollector gathers errors reported by concurrently running work.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// AddError adds an error to the collector. Nil errors are ignored.
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Err returns nil, the single collected error, or all of them joined.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	switch len(ec.errors) {
	case 0:
		return nil
	case 1:
		return ec.errors[0]
	default:
		return errors.Join(ec.errors...)
	}
}
