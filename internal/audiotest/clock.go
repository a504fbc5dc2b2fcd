// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"sort"
	"sync"
	"time"
)

// Clock is a manual clock. Timers fire only from Advance, on the caller's
// goroutine, in deadline order.
type Clock struct {
	mtx    sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*timer
}

type timer struct {
	at  time.Duration
	seq int
	fn  func()
}

func NewClock() *Clock {
	return &Clock{timers: make(map[int]*timer)}
}

// AfterFunc schedules fn after d and returns a function that cancels it.
func (c *Clock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.seq++
	id := c.seq
	c.timers[id] = &timer{at: c.now + d, seq: id, fn: fn}

	return func() bool {
		c.mtx.Lock()
		defer c.mtx.Unlock()

		_, ok := c.timers[id]
		delete(c.timers, id)
		return ok
	}
}

// Advance moves the clock forward by d and runs every timer that came due.
func (c *Clock) Advance(d time.Duration) {
	c.mtx.Lock()
	c.now += d
	var due []*timer
	for id, t := range c.timers {
		if t.at <= c.now {
			due = append(due, t)
			delete(c.timers, id)
		}
	}
	c.mtx.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending is the number of scheduled timers.
func (c *Clock) Pending() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return len(c.timers)
}
