// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import (
	"github.com/ik5/audspace/graph"
)

// Panner wraps a PannerNode. Browsers without positionX and friends only
// offer the setPosition and setOrientation methods.
type Panner struct{ node }

var (
	_ graph.PannerNode       = (*Panner)(nil)
	_ graph.ParamPositioner  = (*Panner)(nil)
	_ graph.ParamOrienter    = (*Panner)(nil)
	_ graph.LegacyPositioner = (*Panner)(nil)
	_ graph.LegacyOrienter   = (*Panner)(nil)
)

func (p *Panner) SetPanningModel(m graph.PanningModel) { p.obj.Set("panningModel", m.String()) }

func (p *Panner) SetDistanceModel(m graph.DistanceModel) {
	if m.Valid() {
		p.obj.Set("distanceModel", m.String())
	}
}

func (p *Panner) SetRefDistance(d float64)       { p.obj.Set("refDistance", d) }
func (p *Panner) SetMaxDistance(d float64)       { p.obj.Set("maxDistance", d) }
func (p *Panner) SetRolloffFactor(f float64)     { p.obj.Set("rolloffFactor", f) }
func (p *Panner) SetConeInnerAngle(deg float64)  { p.obj.Set("coneInnerAngle", deg) }
func (p *Panner) SetConeOuterAngle(deg float64)  { p.obj.Set("coneOuterAngle", deg) }
func (p *Panner) SetConeOuterGain(g float64)     { p.obj.Set("coneOuterGain", g) }
func (p *Panner) SetPosition(x, y, z float64)    { p.obj.Call("setPosition", x, y, z) }
func (p *Panner) SetOrientation(x, y, z float64) { p.obj.Call("setOrientation", x, y, z) }

func (p *Panner) PositionParams() (x, y, z graph.Param, ok bool) {
	if !defined(p.obj.Get("positionX")) {
		return nil, nil, nil, false
	}
	return param(p.obj.Get("positionX")), param(p.obj.Get("positionY")), param(p.obj.Get("positionZ")), true
}

func (p *Panner) OrientationParams() (x, y, z graph.Param, ok bool) {
	if !defined(p.obj.Get("orientationX")) {
		return nil, nil, nil, false
	}
	return param(p.obj.Get("orientationX")), param(p.obj.Get("orientationY")), param(p.obj.Get("orientationZ")), true
}
