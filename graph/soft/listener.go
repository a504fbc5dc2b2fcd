// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audspace/graph"
)

// Listener is the point of view every panner renders for. It supports both
// pose forms unless the context was built WithLegacyPose.
type Listener struct {
	ctx     *Context
	pos     [3]*Param
	forward [3]*Param
	up      [3]*Param
}

var (
	_ graph.ListenerParams = (*Listener)(nil)
	_ graph.LegacyListener = (*Listener)(nil)
)

func newListener(c *Context) *Listener {
	inf := math.Inf(1)
	p := func(v float64) *Param { return newParam(c, v, -inf, inf) }

	return &Listener{
		ctx:     c,
		pos:     [3]*Param{p(0), p(0), p(0)},
		forward: [3]*Param{p(0), p(0), p(-1)},
		up:      [3]*Param{p(0), p(1), p(0)},
	}
}

func (l *Listener) PositionParams() (x, y, z graph.Param, ok bool) {
	return l.pos[0], l.pos[1], l.pos[2], !l.ctx.legacyPose
}

func (l *Listener) OrientationParams() (fx, fy, fz, ux, uy, uz graph.Param, ok bool) {
	return l.forward[0], l.forward[1], l.forward[2], l.up[0], l.up[1], l.up[2], !l.ctx.legacyPose
}

func (l *Listener) SetPosition(x, y, z float64) {
	l.pos[0].SetValue(x)
	l.pos[1].SetValue(y)
	l.pos[2].SetValue(z)
}

func (l *Listener) SetOrientation(fx, fy, fz, ux, uy, uz float64) {
	for i, v := range [6]float64{fx, fy, fz, ux, uy, uz} {
		if i < 3 {
			l.forward[i].SetValue(v)
		} else {
			l.up[i-3].SetValue(v)
		}
	}
}

// Pose returns the listener position, forward and up vectors right now.
func (l *Listener) Pose() (pos, forward, up graph.Vec3) {
	l.ctx.mtx.Lock()
	defer l.ctx.mtx.Unlock()

	t := l.ctx.now()
	return vecAt(l.pos, t), vecAt(l.forward, t), vecAt(l.up, t)
}
