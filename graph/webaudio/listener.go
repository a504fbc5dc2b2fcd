// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import (
	"github.com/gopherjs/gopherjs/js"

	"github.com/ik5/audspace/graph"
)

// Listener wraps the AudioListener of a context.
type Listener struct {
	obj *js.Object
}

var (
	_ graph.ListenerParams = (*Listener)(nil)
	_ graph.LegacyListener = (*Listener)(nil)
)

func (l *Listener) PositionParams() (x, y, z graph.Param, ok bool) {
	if !defined(l.obj.Get("positionX")) {
		return nil, nil, nil, false
	}
	return param(l.obj.Get("positionX")), param(l.obj.Get("positionY")), param(l.obj.Get("positionZ")), true
}

func (l *Listener) OrientationParams() (fx, fy, fz, ux, uy, uz graph.Param, ok bool) {
	if !defined(l.obj.Get("forwardX")) {
		return nil, nil, nil, nil, nil, nil, false
	}
	return param(l.obj.Get("forwardX")), param(l.obj.Get("forwardY")), param(l.obj.Get("forwardZ")),
		param(l.obj.Get("upX")), param(l.obj.Get("upY")), param(l.obj.Get("upZ")), true
}

func (l *Listener) SetPosition(x, y, z float64) { l.obj.Call("setPosition", x, y, z) }

func (l *Listener) SetOrientation(fx, fy, fz, ux, uy, uz float64) {
	l.obj.Call("setOrientation", fx, fy, fz, ux, uy, uz)
}
