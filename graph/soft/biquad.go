// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audspace/graph"
)

// BiquadFilter is a second order low-pass or high-pass section using the
// Audio EQ Cookbook coefficients. Q is in dB, as in Web Audio.
type BiquadFilter struct {
	node
	typ       graph.FilterType
	frequency *Param
	q         *Param

	// coefficients normalised by a0, and the parameters they were built for
	b0, b1, b2, a1, a2 float64
	builtFor           [3]float64

	// direct form I history per channel
	x1, x2, y1, y2 [2]float64
}

var _ graph.BiquadFilterNode = (*BiquadFilter)(nil)

func (c *Context) CreateBiquadFilter() graph.BiquadFilterNode {
	nyquist := c.sampleRate / 2
	f := &BiquadFilter{
		frequency: newParam(c, 350, 0, nyquist),
		q:         newParam(c, 1, -770, 770),
		builtFor:  [3]float64{-1, -1, -1},
	}
	f.init(c, kindBiquad, f)
	return f
}

func (f *BiquadFilter) SetType(t graph.FilterType) {
	f.ctx.mtx.Lock()
	defer f.ctx.mtx.Unlock()

	f.typ = t
}

func (f *BiquadFilter) Frequency() graph.Param { return f.frequency }
func (f *BiquadFilter) Q() graph.Param         { return f.q }

func (f *BiquadFilter) coefficients(freq, q float64) {
	key := [3]float64{float64(f.typ), freq, q}
	if key == f.builtFor {
		return
	}
	f.builtFor = key

	nyquist := f.ctx.sampleRate / 2
	// Edge frequencies degenerate to a pass-through or to silence.
	pass := func() { f.b0, f.b1, f.b2, f.a1, f.a2 = 1, 0, 0, 0, 0 }
	mute := func() { f.b0, f.b1, f.b2, f.a1, f.a2 = 0, 0, 0, 0, 0 }

	switch {
	case freq >= nyquist && f.typ == graph.Lowpass, freq <= 0 && f.typ == graph.Highpass:
		pass()
		return
	case freq <= 0 && f.typ == graph.Lowpass, freq >= nyquist && f.typ == graph.Highpass:
		mute()
		return
	}

	w0 := 2 * math.Pi * freq / f.ctx.sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	alpha := sinw / (2 * math.Pow(10, q/20))

	var b0, b1, b2 float64
	switch f.typ {
	case graph.Highpass:
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
	default:
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
	}
	a0 := 1 + alpha
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = -2*cosw/a0, (1-alpha)/a0
}

func (f *BiquadFilter) process(in, out *block) {
	t := f.ctx.now()
	f.frequency.prune(t)
	f.q.prune(t)
	f.coefficients(f.frequency.at(t), f.q.at(t))

	for c := range out {
		x1, x2, y1, y2 := f.x1[c], f.x2[c], f.y1[c], f.y2[c]
		for i, s := range in[c] {
			x := float64(s)
			y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
			x2, x1 = x1, x
			y2, y1 = y1, y
			out[c][i] = float32(y)
		}
		f.x1[c], f.x2[c], f.y1[c], f.y2[c] = x1, x2, y1, y2
	}
}
