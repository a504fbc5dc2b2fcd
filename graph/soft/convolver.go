// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audspace/graph"
)

// Normalisation constants of the Web Audio convolver.
const (
	gainCalibration           = 0.00125
	gainCalibrationSampleRate = 44100
	minPower                  = 0.000125
)

const fftSize = 2 * Quantum

// Convolver convolves each input channel with an impulse response using
// uniformly partitioned overlap-save FFT convolution with one quantum of
// partition size. A mono impulse response is applied to both channels.
//
// TODO: non-uniform partitions would cut the cost of multi-second responses.
type Convolver struct {
	node
	normalize bool
	kernels   [2]*kernel
}

var _ graph.ConvolverNode = (*Convolver)(nil)

func (c *Context) CreateConvolver() graph.ConvolverNode {
	v := &Convolver{normalize: true}
	v.init(c, kindConvolver, v)
	return v
}

// SetNormalize takes effect on the next SetBuffer.
func (v *Convolver) SetNormalize(normalize bool) {
	v.ctx.mtx.Lock()
	defer v.ctx.mtx.Unlock()

	v.normalize = normalize
}

func (v *Convolver) SetBuffer(b graph.Buffer) {
	var (
		channels [][]float32
		rate     float64
	)
	if b != nil {
		rate = b.SampleRate()
		for ch := range min(b.NumberOfChannels(), 2) {
			channels = append(channels, b.ChannelData(ch))
		}
	}

	v.ctx.mtx.Lock()
	defer v.ctx.mtx.Unlock()

	v.kernels = [2]*kernel{}
	if len(channels) == 0 || len(channels[0]) == 0 {
		return
	}

	scale := 1.0
	if v.normalize {
		scale = normalizationScale(channels, rate)
	}
	for c := range v.kernels {
		v.kernels[c] = newKernel(channels[c%len(channels)], scale)
	}
}

// normalizationScale levels impulse responses of different loudness the way
// browsers do.
func normalizationScale(channels [][]float32, sampleRate float64) float64 {
	var power float64
	n := 0
	for _, ch := range channels {
		for _, s := range ch {
			power += float64(s) * float64(s)
		}
		n += len(ch)
	}
	power = math.Sqrt(power / float64(n))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}

	scale := gainCalibration / power
	if sampleRate > 0 {
		scale *= gainCalibrationSampleRate / sampleRate
	}
	return scale
}

func (v *Convolver) process(in, out *block) {
	for c := range out {
		if v.kernels[c] == nil {
			out[c] = [Quantum]float32{}
			continue
		}
		v.kernels[c].process(&in[c], &out[c])
	}
}

// kernel is one channel of partitioned convolution state.
type kernel struct {
	fft   *fourier.FFT
	parts [][]complex128
	// fdl is a ring of input spectra, newest at head.
	fdl  [][]complex128
	head int

	prev [Quantum]float64
	seq  []float64
	acc  []complex128
	res  []float64
}

func newKernel(ir []float32, scale float64) *kernel {
	k := &kernel{
		fft: fourier.NewFFT(fftSize),
		seq: make([]float64, fftSize),
		acc: make([]complex128, fftSize/2+1),
		res: make([]float64, fftSize),
	}

	for off := 0; off < len(ir); off += Quantum {
		clear(k.seq)
		for i, s := range ir[off:min(off+Quantum, len(ir))] {
			k.seq[i] = float64(s) * scale
		}
		k.parts = append(k.parts, k.fft.Coefficients(nil, k.seq))
		k.fdl = append(k.fdl, make([]complex128, fftSize/2+1))
	}

	return k
}

func (k *kernel) process(in, out *[Quantum]float32) {
	copy(k.seq, k.prev[:])
	for i, s := range in {
		k.seq[Quantum+i] = float64(s)
		k.prev[i] = float64(s)
	}
	k.fft.Coefficients(k.fdl[k.head], k.seq)

	clear(k.acc)
	p := len(k.parts)
	for j, part := range k.parts {
		bins := k.fdl[(k.head-j+p)%p]
		for i := range k.acc {
			k.acc[i] += part[i] * bins[i]
		}
	}
	k.head = (k.head + 1) % p

	k.fft.Sequence(k.res, k.acc)
	for i := range out {
		out[i] = float32(k.res[Quantum+i] / fftSize)
	}
}
