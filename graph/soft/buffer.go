// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"fmt"

	"github.com/ik5/audspace/graph"
)

// Buffer is planar PCM. ChannelData returns the live slice, not a copy.
type Buffer struct {
	sampleRate float64
	data       [][]float32
}

var _ graph.Buffer = (*Buffer)(nil)

// NewBuffer wraps planar data. Every channel must have the same length.
func NewBuffer(data [][]float32, sampleRate float64) (*Buffer, error) {
	if len(data) == 0 || len(data) > maxChannels || len(data[0]) == 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidBuffer, len(data))
	}
	for ch := range data {
		if len(data[ch]) != len(data[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d frames, want %d",
				ErrInvalidBuffer, ch, len(data[ch]), len(data[0]))
		}
	}
	if sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return nil, ErrUnsupportedSampleRate
	}

	return &Buffer{sampleRate: sampleRate, data: data}, nil
}

func (c *Context) CreateBuffer(channels, length int, sampleRate float64) (graph.Buffer, error) {
	if channels <= 0 || channels > maxChannels || length <= 0 {
		return nil, fmt.Errorf("%w: %d channels of %d frames", ErrInvalidBuffer, channels, length)
	}

	data := make([][]float32, channels)
	for ch := range data {
		data[ch] = make([]float32, length)
	}

	return NewBuffer(data, sampleRate)
}

func (b *Buffer) SampleRate() float64   { return b.sampleRate }
func (b *Buffer) Length() int           { return len(b.data[0]) }
func (b *Buffer) NumberOfChannels() int { return len(b.data) }
func (b *Buffer) Duration() float64     { return float64(b.Length()) / b.sampleRate }

func (b *Buffer) ChannelData(ch int) []float32 {
	if ch < 0 || ch >= len(b.data) {
		return nil
	}
	return b.data[ch]
}

// CopyToChannel copies as much of src as fits into channel ch.
func (b *Buffer) CopyToChannel(src []float32, ch int) {
	if ch < 0 || ch >= len(b.data) {
		return
	}
	copy(b.data[ch], src)
}
