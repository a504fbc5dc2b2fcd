// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/ik5/audspace/utils"
)

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass tuned to the destination Nyquist runs ahead of the
// interpolator when downsampling.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // srcRate / dstRate - how many source samples per output sample
	channels int

	// Ring buffer holding 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Fractional read position between frames[1] and frames[2]
	pos float64

	srcBuf []float32
	eof    bool

	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, max(channels, 1)),
		useFilter:   ratio > 1.0,
		filterState: make([]float32, channels),
	}
	if r.useFilter {
		r.filterAlpha = lowpassAlpha(0.45*r.dstRate, r.srcRate)
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

// lowpassAlpha is the smoothing factor of a one-pole low-pass with the given
// cutoff at sample rate fs.
func lowpassAlpha(cutoff, fs float64) float32 {
	return float32(1 - math.Exp(-2*math.Pi*cutoff/fs))
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// readFrame pulls one frame from the source into dst, filtering it when
// downsampling. It reports whether a frame was read.
func (r *Resampler) readFrame(dst []float32) (bool, error) {
	if r.eof {
		return false, io.EOF
	}

	n, err := r.src.ReadSamples(r.srcBuf[:r.channels])
	got := n >= r.channels
	if got {
		copy(dst, r.srcBuf[:r.channels])
		if r.useFilter {
			for c := range r.channels {
				// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
				dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
				r.filterState[c] = dst[c]
			}
		}
	}

	switch {
	case err == io.EOF:
		r.eof = true
		if !got {
			return false, io.EOF
		}
	case err != nil:
		return got, fmt.Errorf("reading resampler source: %w", err)
	case !got:
		// A source may return 0 without error; treat it as a dry read.
		return false, nil
	}

	return true, nil
}

// prime fills the four frame window, duplicating the last valid frame when the
// source is shorter than the window.
func (r *Resampler) prime() error {
	for i := range r.frames {
		if i == 0 && r.useFilter {
			// Seed the filter with the first frame to avoid a warm-up transient.
			n, err := r.src.ReadSamples(r.srcBuf[:r.channels])
			if n >= r.channels {
				copy(r.filterState, r.srcBuf[:r.channels])
				copy(r.frames[0], r.srcBuf[:r.channels])
				r.hasFrame[0] = true
			}
			if err == io.EOF {
				r.eof = true
			} else if err != nil {
				return fmt.Errorf("reading resampler source: %w", err)
			}
			if r.hasFrame[0] {
				continue
			}
			return io.EOF
		}

		ok, err := r.readFrame(r.frames[i])
		r.hasFrame[i] = ok
		if err != nil && err != io.EOF {
			return err
		}
		if !ok {
			if i == 0 {
				return io.EOF
			}
			for j := i; j < len(r.frames); j++ {
				copy(r.frames[j], r.frames[i-1])
				r.hasFrame[j] = true
			}
			break
		}
	}

	r.primed = true
	return nil
}

// advance shifts the window by one frame.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.hasFrame[0] = r.hasFrame[1]
	r.hasFrame[1] = r.hasFrame[2]
	r.hasFrame[2] = r.hasFrame[3]

	ok, err := r.readFrame(r.frames[3])
	r.hasFrame[3] = ok
	if err == io.EOF && r.hasFrame[2] {
		return nil
	}
	return err
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if r.channels == 0 {
		return 0, ErrNoChannels
	}
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if err == io.EOF {
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		if !r.hasFrame[1] || !r.hasFrame[2] {
			return written * r.channels, io.EOF
		}

		alpha := float32(r.pos)
		for c := range r.channels {
			y1 := r.frames[1][c]
			y2 := r.frames[2][c]
			y0, y3 := y1, y2
			if r.hasFrame[0] {
				y0 = r.frames[0][c]
			}
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}

			dst[written*r.channels+c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
