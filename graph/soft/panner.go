// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audspace/attenuation"
	"github.com/ik5/audspace/graph"
)

// Panner spatialises the mono mix of its input with equal-power panning,
// distance attenuation and a directional cone. HRTF is accepted as a panning
// model and rendered as equal-power.
type Panner struct {
	node

	panning  graph.PanningModel
	distance graph.DistanceModel
	ref, max float64
	rolloff  float64

	coneInner, coneOuter, coneOuterGain float64

	pos    [3]*Param
	orient [3]*Param

	// gains applied at the end of the previous quantum, ramped from to avoid zipper noise
	lastL, lastR float32
	primed       bool
}

var (
	_ graph.PannerNode       = (*Panner)(nil)
	_ graph.ParamPositioner  = (*Panner)(nil)
	_ graph.ParamOrienter    = (*Panner)(nil)
	_ graph.LegacyPositioner = (*Panner)(nil)
	_ graph.LegacyOrienter   = (*Panner)(nil)
)

func (c *Context) CreatePanner() graph.PannerNode {
	inf := math.Inf(1)
	p := &Panner{
		distance:  attenuation.Inverse,
		ref:       1,
		max:       10000,
		rolloff:   1,
		coneInner: 360,
		coneOuter: 360,
		pos:       [3]*Param{newParam(c, 0, -inf, inf), newParam(c, 0, -inf, inf), newParam(c, 0, -inf, inf)},
		orient:    [3]*Param{newParam(c, 1, -inf, inf), newParam(c, 0, -inf, inf), newParam(c, 0, -inf, inf)},
	}
	p.init(c, kindPanner, p)
	return p
}

// locked runs f with the context lock held.
func (p *Panner) locked(f func()) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()
	f()
}

func (p *Panner) SetPanningModel(m graph.PanningModel) { p.locked(func() { p.panning = m }) }

func (p *Panner) SetDistanceModel(m graph.DistanceModel) {
	if !m.Valid() {
		return
	}
	p.locked(func() { p.distance = m })
}

func (p *Panner) SetRefDistance(d float64) {
	if d < 0 {
		return
	}
	p.locked(func() { p.ref = d })
}

func (p *Panner) SetMaxDistance(d float64) {
	if d <= 0 {
		return
	}
	p.locked(func() { p.max = d })
}

func (p *Panner) SetRolloffFactor(f float64) {
	if f < 0 {
		return
	}
	p.locked(func() { p.rolloff = f })
}

func (p *Panner) SetConeInnerAngle(deg float64) { p.locked(func() { p.coneInner = deg }) }
func (p *Panner) SetConeOuterAngle(deg float64) { p.locked(func() { p.coneOuter = deg }) }
func (p *Panner) SetConeOuterGain(g float64)    { p.locked(func() { p.coneOuterGain = g }) }

func (p *Panner) PositionParams() (x, y, z graph.Param, ok bool) {
	return p.pos[0], p.pos[1], p.pos[2], !p.ctx.legacyPose
}

func (p *Panner) OrientationParams() (x, y, z graph.Param, ok bool) {
	return p.orient[0], p.orient[1], p.orient[2], !p.ctx.legacyPose
}

func (p *Panner) SetPosition(x, y, z float64) {
	p.pos[0].SetValue(x)
	p.pos[1].SetValue(y)
	p.pos[2].SetValue(z)
}

func (p *Panner) SetOrientation(x, y, z float64) {
	p.orient[0].SetValue(x)
	p.orient[1].SetValue(y)
	p.orient[2].SetValue(z)
}

// Gains returns the left and right gains the panner applies right now.
func (p *Panner) Gains() (left, right float64) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	l, r := p.gains(p.ctx.now())
	return float64(l), float64(r)
}

func vecAt(ps [3]*Param, t float64) graph.Vec3 {
	return graph.Vec3{X: ps[0].at(t), Y: ps[1].at(t), Z: ps[2].at(t)}
}

func (p *Panner) gains(t float64) (float32, float32) {
	l := p.ctx.listener
	src := vecAt(p.pos, t)
	lpos := vecAt(l.pos, t)

	g := attenuation.Gain(src.Distance(lpos), p.ref, p.max, p.rolloff, p.distance)
	g *= attenuation.ConeGain(src.Array(), vecAt(p.orient, t).Array(), lpos.Array(),
		p.coneInner, p.coneOuter, p.coneOuterGain)

	az := azimuth(src.Sub(lpos), vecAt(l.forward, t), vecAt(l.up, t))

	// Fold rear angles onto the front half plane.
	if az < -90 {
		az = -180 - az
	} else if az > 90 {
		az = 180 - az
	}
	x := (az + 90) / 180

	return float32(g * math.Cos(x*math.Pi/2)), float32(g * math.Sin(x*math.Pi/2))
}

// azimuth is the angle in degrees of dir around the listener, 0 straight
// ahead, positive to the right.
func azimuth(dir, forward, up graph.Vec3) float64 {
	dir = dir.Normalize()
	if dir.IsZero() {
		return 0
	}

	f := forward.Normalize()
	right := f.Cross(up).Normalize()
	if right.IsZero() {
		return 0
	}
	u := right.Cross(f)

	projected := dir.Sub(u.Scale(dir.Dot(u))).Normalize()
	if projected.IsZero() {
		return 0
	}

	cos := max(-1, min(1, projected.Dot(right)))
	az := math.Acos(cos) * 180 / math.Pi
	if projected.Dot(f) < 0 {
		az = 360 - az
	}

	if az <= 270 {
		return 90 - az
	}
	return 450 - az
}

func (p *Panner) process(in, out *block) {
	t := p.ctx.now()
	for i := range p.pos {
		p.pos[i].prune(t)
		p.orient[i].prune(t)
	}
	l, r := p.gains(t)
	if !p.primed {
		p.lastL, p.lastR, p.primed = l, r, true
	}

	stepL := (l - p.lastL) / Quantum
	stepR := (r - p.lastR) / Quantum
	gl, gr := p.lastL, p.lastR
	for i := range Quantum {
		gl += stepL
		gr += stepR
		mono := (in[0][i] + in[1][i]) * 0.5
		out[0][i] = mono * gl
		out[1][i] = mono * gr
	}
	p.lastL, p.lastR = l, r
}
