// SPDX-License-Identifier: EPL-2.0

package soft

import "errors"

var (
	ErrUnsupportedSampleRate = errors.New("sample rate outside 3000-768000 Hz")
	ErrUnknownFormat         = errors.New("unable to detect audio format")
	ErrClosed                = errors.New("context is closed")
	ErrInvalidBuffer         = errors.New("invalid buffer shape")
)
