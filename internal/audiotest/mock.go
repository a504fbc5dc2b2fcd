// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds test doubles shared by the module's tests.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the sample for frame in channel ch.
type Waveform func(frame, ch int) float32

// Source generates a fixed number of frames from a Waveform.
// It satisfies audio.Source without importing it.
type Source struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform
	closed     bool
}

func NewSource(sampleRate, channels, frames int, wave Waveform) *Source {
	return &Source{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *Source {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *Source {
	return NewSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

func NewSineSource(sampleRate, channels, frames int, freq float64) *Source {
	return NewSource(sampleRate, channels, frames, Sine(sampleRate, freq, 1))
}

// Sine is a Waveform of the given frequency and peak amplitude.
func Sine(sampleRate int, freq, amp float64) Waveform {
	return func(frame, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(amp * math.Sin(2*math.Pi*freq*t))
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 4096 }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Source) Closed() bool { return s.closed }

// Reset rewinds the source to its first frame.
func (s *Source) Reset() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	for f := range n {
		for c := range s.channels {
			dst[f*s.channels+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

// ErrSource fails every read with Err.
type ErrSource struct {
	Rate int
	Err  error
}

func (e ErrSource) SampleRate() int                    { return e.Rate }
func (e ErrSource) Channels() int                      { return 1 }
func (e ErrSource) BufSize() int                       { return 0 }
func (e ErrSource) Close() error                       { return nil }
func (e ErrSource) ReadSamples([]float32) (int, error) { return 0, e.Err }
