// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import "errors"

var (
	ErrUnsupported = errors.New("web audio is not available")
	ErrRejected    = errors.New("web audio promise rejected")
)
