// SPDX-License-Identifier: EPL-2.0

package attenuation

import "math"

// ConeGain returns the directional gain of an emitter at src facing orientation, as
// heard from a listener at listener.
//
// Inside half of inner degrees the gain is 1, outside half of outer degrees it is
// outerGain, and in between it is interpolated linearly. A zero orientation or a
// full 360/360 cone is omnidirectional.
func ConeGain(src, orientation, listener [3]float64, inner, outer, outerGain float64) float64 {
	if inner >= 360 && outer >= 360 {
		return 1
	}
	if orientation == ([3]float64{}) {
		return 1
	}

	toListener := [3]float64{
		listener[0] - src[0],
		listener[1] - src[1],
		listener[2] - src[2],
	}
	dl := norm(toListener)
	do := norm(orientation)
	if dl == 0 || do == 0 {
		return 1
	}

	cos := dot(toListener, orientation) / (dl * do)
	cos = math.Max(-1, math.Min(1, cos))
	angle := math.Acos(cos) * 180 / math.Pi

	absInner := math.Abs(inner) / 2
	absOuter := math.Abs(outer) / 2

	switch {
	case angle <= absInner:
		return 1
	case angle >= absOuter:
		return outerGain
	}

	x := (angle - absInner) / (absOuter - absInner)
	return (1 - x) + outerGain*x
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func norm(a [3]float64) float64 { return math.Sqrt(dot(a, a)) }
