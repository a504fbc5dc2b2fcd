// SPDX-License-Identifier: EPL-2.0

// Package attenuation holds the pure distance and cone attenuation math used by
// positional sound emitters.
//
// Nothing in here touches a device graph: the functions map geometry to a gain
// factor, so the same formulas can drive a software panner and validate a
// hardware one.
package attenuation

import (
	"fmt"
	"math"
	"strings"
)

// Model selects the curve that maps listener distance to gain.
type Model uint8

const (
	// Unset marks a model that should be filled from a default.
	Unset Model = iota
	Linear
	Inverse
	Exponential
)

var modelNames = [...]string{
	Unset:       "",
	Linear:      "linear",
	Inverse:     "inverse",
	Exponential: "exponential",
}

func (m Model) String() string {
	if int(m) < len(modelNames) {
		return modelNames[m]
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// Valid reports whether m is one of Linear, Inverse or Exponential.
func (m Model) Valid() bool {
	return m == Linear || m == Inverse || m == Exponential
}

// ParseModel converts "linear", "inverse" or "exponential" (case insensitive) to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "inverse":
		return Inverse, nil
	case "exponential":
		return Exponential, nil
	}

	return Unset, fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Gain returns the distance attenuation factor for distance.
//
// distance is clamped to [ref, max] before the model is evaluated, so Gain(ref, ...)
// is 1 for every model and any rolloff >= 0:
//
//	Linear:      1 - rolloff*(d-ref)/(max-ref), rolloff clamped to [0, 1]
//	Inverse:     ref / (ref + rolloff*(d-ref))
//	Exponential: (d/ref)^-rolloff
//
// An unknown model yields 1.
func Gain(distance, ref, max, rolloff float64, m Model) float64 {
	if max < ref {
		max = ref
	}
	d := distance
	if d < ref {
		d = ref
	}
	if d > max {
		d = max
	}

	switch m {
	case Linear:
		if max == ref {
			return 1
		}
		r := rolloff
		if r < 0 {
			r = 0
		}
		if r > 1 {
			r = 1
		}
		return 1 - r*(d-ref)/(max-ref)
	case Inverse:
		den := ref + rolloff*(d-ref)
		if den <= 0 {
			return 1
		}
		return ref / den
	case Exponential:
		if ref <= 0 {
			return 1
		}
		return math.Pow(d/ref, -rolloff)
	}

	return 1
}
