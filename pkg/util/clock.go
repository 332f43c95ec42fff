package util

import "time"

// Clock abstracts time so brokers can be driven deterministically in tests:
// Now feeds order activity stamps, After arms the expiration sweep.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }
