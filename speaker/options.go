// SPDX-License-Identifier: EPL-2.0

package speaker

import "time"

// DefaultBufferSize is the device buffer used when no option overrides it.
const DefaultBufferSize = 50 * time.Millisecond

type options struct {
	bufferSize time.Duration
}

type Option func(*options)

// WithBufferSize sets the device buffer duration. Smaller values lower the
// latency of listener and volume changes at the cost of underruns.
func WithBufferSize(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.bufferSize = d
		}
	}
}
