// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"errors"
	"fmt"
)

var (
	ErrDisposed        = errors.New("audio manager is disposed")
	ErrMaxSounds       = errors.New("maximum number of positional sounds reached")
	ErrInvalidReverb   = errors.New("reverb decay must be positive")
	ErrEmptyURL        = errors.New("empty asset url")
	ErrInvalidPoolSize = errors.New("pool size must be positive")
)

// LoadError reports a failure to fetch or decode the asset at URL.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %q: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
