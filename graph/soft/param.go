// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"
	"slices"

	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/utils"
)

type eventKind uint8

const (
	setEvent eventKind = iota
	rampEvent
)

type event struct {
	kind eventKind
	v, t float64
}

// Param is an automatable value. Events are kept sorted by time; value holds
// the value in effect before the first event.
type Param struct {
	ctx      *Context
	value    float64
	min, max float64
	events   []event
}

var _ graph.Param = (*Param)(nil)

func newParam(c *Context, def, lo, hi float64) *Param {
	return &Param{ctx: c, value: def, min: lo, max: hi}
}

func (p *Param) Value() float64 {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	return p.at(p.ctx.now())
}

// SetValue sets the value now and drops every scheduled event.
func (p *Param) SetValue(v float64) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	p.value = v
	p.events = p.events[:0]
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	p.insert(event{kind: setEvent, v: v, t: t})
}

// LinearRampToValueAtTime ramps from the previous event, or from the current
// value and time when there is none, to v at t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	now := p.ctx.now()
	p.prune(now)
	if len(p.events) == 0 || p.events[0].t > now {
		p.insert(event{kind: setEvent, v: p.at(now), t: now})
	}
	p.insert(event{kind: rampEvent, v: v, t: t})
}

func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mtx.Lock()
	defer p.ctx.mtx.Unlock()

	p.events = slices.DeleteFunc(p.events, func(e event) bool { return e.t >= t })
}

func (p *Param) insert(e event) {
	i, _ := slices.BinarySearchFunc(p.events, e.t, func(x event, t float64) int {
		if x.t <= t {
			return -1
		}
		return 1
	})
	p.events = slices.Insert(p.events, i, e)
}

// prune folds events that are fully in the past into value, keeping the most
// recent one as the anchor of a ramp still in progress.
func (p *Param) prune(now float64) {
	last := -1
	for i, e := range p.events {
		if e.t > now {
			break
		}
		last = i
	}
	if last < 0 {
		return
	}

	p.value = p.events[last].v
	if last == len(p.events)-1 {
		p.events = p.events[:0]
		return
	}
	p.events = slices.Delete(p.events, 0, last)
}

// at returns the clamped value at time t without locking.
func (p *Param) at(t float64) float64 {
	v, vt := p.value, math.Inf(-1)
	for _, e := range p.events {
		if e.t <= t {
			v, vt = e.v, e.t
			continue
		}
		if e.kind == rampEvent && !math.IsInf(vt, -1) {
			v += (e.v - v) * (t - vt) / (e.t - vt)
		}
		break
	}
	return utils.Clamp(v, p.min, p.max)
}

// constant reports whether the value cannot change within [from, to).
func (p *Param) constant(from, to float64) bool {
	for _, e := range p.events {
		if e.t >= from && e.t < to {
			return false
		}
		if e.t >= to {
			return e.kind != rampEvent
		}
	}
	return true
}

// fill writes the a-rate values for one quantum starting at frame into dst.
func (p *Param) fill(dst *[Quantum]float32, frame int64) {
	sr := p.ctx.sampleRate
	from := float64(frame) / sr
	to := float64(frame+Quantum) / sr

	p.prune(from)
	if p.constant(from, to) {
		v := float32(p.at(from))
		for i := range dst {
			dst[i] = v
		}
		return
	}
	for i := range dst {
		dst[i] = float32(p.at(float64(frame+int64(i)) / sr))
	}
}
