package refresh

import (
	"sync"
	"time"
)

// FetchError is one surfaced dataset failure: the refresh cycle kept the
// key's last good value and recorded this instead of crashing.
type FetchError struct {
	Dataset string
	At      time.Time
	Err     error
}

// maxRecorded bounds the error log so an extended provider outage cannot
// grow it without limit between reads.
const maxRecorded = 100

// ErrorLog collects dataset failures between presentation reads. The
// dashboard drains it to show an "errors since last refresh" panel.
type ErrorLog struct {
	mu   sync.Mutex
	errs []FetchError
}

// NewErrorLog creates an empty error log.
func NewErrorLog() *ErrorLog {
	return &ErrorLog{}
}

// Record appends one failure, dropping the oldest entry when full.
func (l *ErrorLog) Record(dataset string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.errs) >= maxRecorded {
		l.errs = l.errs[1:]
	}
	l.errs = append(l.errs, FetchError{Dataset: dataset, At: time.Now(), Err: err})
}

// Drain returns all recorded failures and clears the log.
func (l *ErrorLog) Drain() []FetchError {
	l.mu.Lock()
	defer l.mu.Unlock()

	errs := l.errs
	l.errs = nil
	return errs
}

// Len returns the number of recorded failures.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}
