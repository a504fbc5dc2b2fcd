// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"

	"github.com/ik5/audspace/attenuation"
)

// DistanceModel is the attenuation curve a panner applies.
type DistanceModel = attenuation.Model

// FilterType selects a biquad response.
type FilterType uint8

const (
	Lowpass FilterType = iota
	Highpass
)

func (f FilterType) String() string {
	if f == Highpass {
		return "highpass"
	}
	return "lowpass"
}

// PanningModel selects how a panner maps azimuth to per-ear gain.
type PanningModel uint8

const (
	EqualPower PanningModel = iota
	HRTF
)

func (p PanningModel) String() string {
	if p == HRTF {
		return "HRTF"
	}
	return "equalpower"
}

// Vec3 is a position or direction in listener space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3         { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3         { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3    { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64      { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float64         { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Array() [3]float64       { return [3]float64{v.X, v.Y, v.Z} }
func (v Vec3) IsZero() bool            { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}
