// SPDX-License-Identifier: EPL-2.0

package fetch

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("asset not found")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// StatusError is returned when an HTTP fetch answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Is matches ErrNotFound for 404 and 410 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && (e.StatusCode == 404 || e.StatusCode == 410)
}
