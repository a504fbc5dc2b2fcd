// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import (
	"github.com/gopherjs/gopherjs/js"

	"github.com/ik5/audspace/graph"
)

type objecter interface{ object() *js.Object }

type node struct {
	obj *js.Object
}

func (n *node) object() *js.Object { return n.obj }

// Connect ignores nodes that do not belong to a web audio context.
func (n *node) Connect(dst graph.Node) {
	if o, ok := dst.(objecter); ok {
		n.obj.Call("connect", o.object())
	}
}

func (n *node) Disconnect() { n.obj.Call("disconnect") }

// Param wraps an AudioParam.
type Param struct {
	obj *js.Object
}

var _ graph.Param = (*Param)(nil)

func param(o *js.Object) *Param { return &Param{obj: o} }

func (p *Param) Value() float64                       { return p.obj.Get("value").Float() }
func (p *Param) SetValue(v float64)                   { p.obj.Set("value", v) }
func (p *Param) SetValueAtTime(v, t float64)          { p.obj.Call("setValueAtTime", v, t) }
func (p *Param) LinearRampToValueAtTime(v, t float64) { p.obj.Call("linearRampToValueAtTime", v, t) }
func (p *Param) CancelScheduledValues(t float64)      { p.obj.Call("cancelScheduledValues", t) }

type Gain struct{ node }

func (g *Gain) Gain() graph.Param { return param(g.obj.Get("gain")) }

type BiquadFilter struct{ node }

func (f *BiquadFilter) SetType(t graph.FilterType) { f.obj.Set("type", t.String()) }
func (f *BiquadFilter) Frequency() graph.Param     { return param(f.obj.Get("frequency")) }
func (f *BiquadFilter) Q() graph.Param             { return param(f.obj.Get("Q")) }

type Convolver struct {
	node
	ctx *Context
}

func (v *Convolver) SetBuffer(b graph.Buffer)    { v.obj.Set("buffer", v.ctx.audioBuffer(b)) }
func (v *Convolver) SetNormalize(normalize bool) { v.obj.Set("normalize", normalize) }

type BufferSource struct {
	node
	ctx *Context
}

func (s *BufferSource) SetBuffer(b graph.Buffer)  { s.obj.Set("buffer", s.ctx.audioBuffer(b)) }
func (s *BufferSource) SetLoop(loop bool)         { s.obj.Set("loop", loop) }
func (s *BufferSource) PlaybackRate() graph.Param { return param(s.obj.Get("playbackRate")) }
func (s *BufferSource) Start(when, offset float64) {
	s.obj.Call("start", when, offset)
}

// Stop ignores the InvalidStateError thrown for a node that never started.
func (s *BufferSource) Stop(when float64) {
	defer func() { _ = recover() }()
	s.obj.Call("stop", when)
}

// OnEnded runs f on the event loop; a browser delivers it asynchronously.
func (s *BufferSource) OnEnded(f func()) {
	s.obj.Set("onended", func() { go f() })
}
