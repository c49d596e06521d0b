// Package protocol defines the ports the orchestration core depends on.
// Implementations live with the host service; the core only consumes these
// interfaces.
package protocol

import "time"

// Clock supplies the current time so scheduling and recurrence computation
// stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
