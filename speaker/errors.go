// SPDX-License-Identifier: EPL-2.0

package speaker

import "errors"

var (
	ErrInvalidSource = errors.New("source must report a positive sample rate and channel count")
	ErrClosed        = errors.New("speaker is closed")
)
