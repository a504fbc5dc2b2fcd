// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// ReadAll drains src and returns its samples de-interleaved, one slice per channel.
func ReadAll(src Source, bufferSize int) ([][]float32, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrNoChannels
	}
	if bufferSize < channels {
		bufferSize = 4096
	}
	bufferSize -= bufferSize % channels

	planar := make([][]float32, channels)
	buf := make([]float32, bufferSize)
	dry := 0

	for {
		n, err := src.ReadSamples(buf)
		frames := n / channels
		for c := range channels {
			for f := range frames {
				planar[c] = append(planar[c], buf[f*channels+c])
			}
		}

		if err == io.EOF {
			return planar, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}

		// Guard against sources that keep returning nothing without EOF.
		if n == 0 {
			dry++
			if dry > 16 {
				return planar, nil
			}
			continue
		}
		dry = 0
	}
}

// Limit wraps src so that it ends with io.EOF after frames frames.
func Limit(src Source, frames int) Source {
	return &limited{Source: src, left: frames}
}

type limited struct {
	Source
	left int
}

func (l *limited) ReadSamples(dst []float32) (int, error) {
	if l.left <= 0 {
		return 0, io.EOF
	}

	channels := l.Channels()
	want := min(len(dst)/channels, l.left) * channels
	n, err := l.Source.ReadSamples(dst[:want])
	l.left -= n / channels
	if err == nil && l.left <= 0 {
		err = io.EOF
	}

	return n, err
}
