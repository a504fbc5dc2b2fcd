// SPDX-License-Identifier: EPL-2.0

package audspace

import "time"

// Clock schedules deferred calls. AfterFunc returns a function that cancels
// the call and reports whether it was still pending, like time.Timer.Stop.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock schedules with time.AfterFunc.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
