// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"errors"
	"io"

	"github.com/ik5/audspace/audio"
)

// Output exposes the rendered stereo mix as an audio.Source. Reads return
// io.EOF once the context is closed; an open context never ends, so wrap it
// with audio.Limit to bounce a fixed length.
func (c *Context) Output() audio.Source {
	return output{c: c}
}

type output struct {
	c *Context
}

var _ audio.Source = output{}

func (o output) SampleRate() int { return int(o.c.sampleRate) }
func (o output) Channels() int   { return 2 }
func (o output) BufSize() int    { return Quantum * 2 }

// Close leaves the context open; it is owned by whoever created it.
func (o output) Close() error { return nil }

func (o output) ReadSamples(dst []float32) (int, error) {
	n, err := o.c.Render(dst)
	if errors.Is(err, ErrClosed) {
		return 0, io.EOF
	}
	return n, err
}
