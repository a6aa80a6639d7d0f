package lead

import "time"

// Timer is the handle of a pending AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock is the time source for submit stamps and the success auto-hide.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
