// SPDX-License-Identifier: EPL-2.0

package speaker

import (
	"encoding/binary"
	"math"

	"github.com/ik5/audspace/audio"
)

const bytesPerSample = 4

// reader encodes an audio.Source as interleaved float32 little-endian bytes.
type reader struct {
	src      audio.Source
	channels int
	buf      []float32
	enc      []byte
	// pending is the encoded part of the last read not yet handed out.
	pending []byte
	// err is returned once pending drains.
	err error
}

func newReader(src audio.Source) *reader {
	size := src.BufSize()
	if size <= 0 {
		size = 4096
	}
	return &reader{
		src:      src,
		channels: max(src.Channels(), 1),
		buf:      make([]float32, size),
	}
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(r.pending) == 0 {
		if r.err != nil {
			err := r.err
			r.err = nil
			return 0, err
		}

		// Whole frames only; sources may refuse partial ones.
		want := (len(p) + bytesPerSample - 1) / bytesPerSample
		want = (want + r.channels - 1) / r.channels * r.channels
		if want > cap(r.buf) {
			r.buf = make([]float32, want)
		}

		got, err := r.src.ReadSamples(r.buf[:want])
		r.enc = r.enc[:0]
		for _, s := range r.buf[:got] {
			r.enc = binary.LittleEndian.AppendUint32(r.enc, math.Float32bits(s))
		}
		r.pending = r.enc

		if len(r.pending) == 0 {
			return 0, err
		}
		r.err = err
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
