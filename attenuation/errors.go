// SPDX-License-Identifier: EPL-2.0

package attenuation

import "errors"

var (
	ErrUnknownModel = errors.New("unknown distance model")
)
