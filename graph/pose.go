// SPDX-License-Identifier: EPL-2.0

package graph

// ParamPositioner exposes position as three automatable parameters. ok is false when
// the device does not provide them at this moment.
type ParamPositioner interface {
	PositionParams() (x, y, z Param, ok bool)
}

// ParamOrienter exposes emitter orientation as three automatable parameters.
type ParamOrienter interface {
	OrientationParams() (x, y, z Param, ok bool)
}

// LegacyPositioner is the older method form of setting position.
type LegacyPositioner interface {
	SetPosition(x, y, z float64)
}

// LegacyOrienter is the older method form of setting emitter orientation.
type LegacyOrienter interface {
	SetOrientation(x, y, z float64)
}

// ListenerParams exposes the listener pose as parameters.
type ListenerParams interface {
	ParamPositioner
	// OrientationParams returns forward (fx, fy, fz) and up (ux, uy, uz).
	OrientationParams() (fx, fy, fz, ux, uy, uz Param, ok bool)
}

// LegacyListener is the older method form of setting the listener pose.
type LegacyListener interface {
	LegacyPositioner
	SetOrientation(fx, fy, fz, ux, uy, uz float64)
}

// SetPosition positions n using whichever form it supports right now. It reports
// false when n supports neither.
func SetPosition(n any, x, y, z float64) bool {
	if p, ok := n.(ParamPositioner); ok {
		if px, py, pz, ok := p.PositionParams(); ok {
			px.SetValue(x)
			py.SetValue(y)
			pz.SetValue(z)
			return true
		}
	}
	if l, ok := n.(LegacyPositioner); ok {
		l.SetPosition(x, y, z)
		return true
	}
	return false
}

// SetOrientation orients an emitter using whichever form it supports right now.
func SetOrientation(n any, x, y, z float64) bool {
	if p, ok := n.(ParamOrienter); ok {
		if px, py, pz, ok := p.OrientationParams(); ok {
			px.SetValue(x)
			py.SetValue(y)
			pz.SetValue(z)
			return true
		}
	}
	if l, ok := n.(LegacyOrienter); ok {
		l.SetOrientation(x, y, z)
		return true
	}
	return false
}

// SetListenerOrientation sets forward and up on a listener using whichever form it
// supports right now.
func SetListenerOrientation(l Listener, fx, fy, fz, ux, uy, uz float64) bool {
	if p, ok := l.(ListenerParams); ok {
		if pfx, pfy, pfz, pux, puy, puz, ok := p.OrientationParams(); ok {
			pfx.SetValue(fx)
			pfy.SetValue(fy)
			pfz.SetValue(fz)
			pux.SetValue(ux)
			puy.SetValue(uy)
			puz.SetValue(uz)
			return true
		}
	}
	if legacy, ok := l.(LegacyListener); ok {
		legacy.SetOrientation(fx, fy, fz, ux, uy, uz)
		return true
	}
	return false
}
