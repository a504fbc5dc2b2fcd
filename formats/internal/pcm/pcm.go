// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer PCM readers to audio.Source.
package pcm

import (
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the subset of the go-audio wav and aiff decoders the adapter uses.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer frames from a Reader into normalized float32 samples.
type Source struct {
	r          Reader
	sampleRate int
	channels   int
	bitDepth   int
	// unsigned8 is set for containers that store 8-bit samples as unsigned bytes.
	unsigned8 bool
	scale     float32
	intBuf    *goaudio.IntBuffer
}

func NewSource(r Reader, sampleRate, channels, bitDepth int, unsigned8 bool) *Source {
	return &Source{
		r:          r,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		unsigned8:  unsigned8,
		scale:      1 / FullScale(bitDepth),
	}
}

// FullScale is the magnitude that maps to 1.0 for a signed sample of bitDepth bits.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	}
	return 32768.0
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }

func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data: make([]int, len(dst)),
			Format: &goaudio.Format{
				NumChannels: s.channels,
				SampleRate:  s.sampleRate,
			},
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.r.PCMBuffer(s.intBuf)
	if n <= 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	if s.unsigned8 && s.bitDepth == 8 {
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]-128) * s.scale
		}
	} else {
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]) * s.scale
		}
	}

	return n, err
}
