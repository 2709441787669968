package server

import "time"

// Clock produces monotonic timestamps relative to its creation. It reads the
// monotonic clock, never wall time, so readings do not jump with NTP changes.
type Clock struct {
	origin time.Time
}

func NewClock() *Clock {
	return &Clock{origin: time.Now()}
}

// Now returns the milliseconds elapsed since the clock was created.
func (c *Clock) Now() Timestamp {
	return Timestamp{Millis: uint64(time.Since(c.origin).Milliseconds())}
}

// Stamp wraps p in a server frame stamped with the current reading.
func (c *Clock) Stamp(p Payload) Message {
	return NewMessage(c.Now(), p)
}
