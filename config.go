// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"

	"github.com/ik5/audspace/attenuation"
	"github.com/ik5/audspace/fetch"
	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/graph/soft"
)

// Vec3 is a position or direction in listener space.
type Vec3 = graph.Vec3

// Fetcher supplies the encoded bytes of an asset.
type Fetcher = fetch.Fetcher

// PoseSource supplies the listener pose once per frame, usually from a camera.
type PoseSource interface {
	ListenerPose() (position, forward, up Vec3)
}

// SourceConfig describes a positional sound. Zero distance fields take the
// manager defaults, a zero Volume or PlaybackRate means 1, and zero cone
// angles mean an omnidirectional emitter.
//
// A negative Volume creates the sound muted, ready for SetVolume to fade it
// in. A negative RolloffFactor means 0, an emitter whose level does not
// depend on distance.
type SourceConfig struct {
	URL          string
	Loop         bool
	Volume       float64
	PlaybackRate float64

	RefDistance   float64
	MaxDistance   float64
	RolloffFactor float64
	DistanceModel attenuation.Model

	ConeInnerAngle float64
	ConeOuterAngle float64
	ConeOuterGain  float64
}

func NewSourceConfig(url string) SourceConfig {
	return SourceConfig{
		URL:            url,
		Volume:         1,
		PlaybackRate:   1,
		ConeInnerAngle: 360,
		ConeOuterAngle: 360,
	}
}

// AmbientConfig describes a non-positional background sound. A zero Volume
// means 1 and a negative one starts it muted.
type AmbientConfig struct {
	URL    string
	Loop   bool
	Volume float64
}

// NewAmbientConfig returns a looping ambient config at full volume.
func NewAmbientConfig(url string) AmbientConfig {
	return AmbientConfig{URL: url, Loop: true, Volume: 1}
}

// PoolConfig describes PoolSize voices sharing one SourceConfig.
type PoolConfig struct {
	SourceConfig
	PoolSize int
}

func NewPoolConfig(url string, size int) PoolConfig {
	return PoolConfig{SourceConfig: NewSourceConfig(url), PoolSize: size}
}

// ReverbConfig describes a synthetic convolution reverb. Times are seconds.
type ReverbConfig struct {
	Decay    float64
	PreDelay float64
	Wet      float64
	Dry      float64
}

func DefaultReverbConfig() ReverbConfig {
	return ReverbConfig{Decay: 2, Wet: 0.3, Dry: 0.7}
}

type EnvironmentType string

const (
	EnvironmentNone       EnvironmentType = "none"
	EnvironmentOutdoor    EnvironmentType = "outdoor"
	EnvironmentIndoor     EnvironmentType = "indoor"
	EnvironmentCave       EnvironmentType = "cave"
	EnvironmentUnderwater EnvironmentType = "underwater"
)

// ParseEnvironmentType accepts the preset names case-insensitively.
func ParseEnvironmentType(s string) (EnvironmentType, error) {
	switch t := EnvironmentType(strings.ToLower(strings.TrimSpace(s))); t {
	case EnvironmentNone, EnvironmentOutdoor, EnvironmentIndoor, EnvironmentCave, EnvironmentUnderwater:
		return t, nil
	}
	return EnvironmentNone, fmt.Errorf("unknown environment %q", s)
}

// EnvironmentConfig describes an acoustic environment chain. A zero frequency
// leaves its filter out and a nil Reverb leaves the reverb out.
type EnvironmentConfig struct {
	Type              EnvironmentType
	Reverb            *ReverbConfig
	LowpassFrequency  float64
	HighpassFrequency float64
}

// clone returns c with its own copy of Reverb.
func (c EnvironmentConfig) clone() EnvironmentConfig {
	if c.Reverb != nil {
		r := *c.Reverb
		c.Reverb = &r
	}
	return c
}

// EnvironmentPreset returns the preset for t. Unknown types yield the
// pass-through "none" environment.
func EnvironmentPreset(t EnvironmentType) EnvironmentConfig {
	switch t {
	case EnvironmentOutdoor:
		return EnvironmentConfig{Type: t, Reverb: &ReverbConfig{Decay: 0.5, Wet: 0.1, Dry: 0.9}}
	case EnvironmentIndoor:
		return EnvironmentConfig{Type: t, Reverb: &ReverbConfig{Decay: 1.5, Wet: 0.3, Dry: 0.7}}
	case EnvironmentCave:
		return EnvironmentConfig{
			Type:             t,
			Reverb:           &ReverbConfig{Decay: 4, PreDelay: 0.05, Wet: 0.5, Dry: 0.5},
			LowpassFrequency: 8000,
		}
	case EnvironmentUnderwater:
		return EnvironmentConfig{
			Type:              t,
			Reverb:            &ReverbConfig{Decay: 2, Wet: 0.4, Dry: 0.6},
			LowpassFrequency:  1000,
			HighpassFrequency: 100,
		}
	}
	return EnvironmentConfig{Type: EnvironmentNone}
}

// Routing selects how sources reach the active environment.
type Routing uint8

const (
	// RoutingBus feeds every source into a manager-owned bus placed in front
	// of the environment, so an environment swap affects live sources.
	RoutingBus Routing = iota
	// RoutingDirect connects each source straight to the environment input.
	// SetEnvironment rewires every registered source onto the new chain.
	RoutingDirect
)

func (r Routing) String() string {
	if r == RoutingDirect {
		return "direct"
	}
	return "bus"
}

// Config configures a Manager. Zero fields take the values of DefaultConfig.
type Config struct {
	// MaxSounds caps registered positional sounds; 0 or less is unlimited.
	MaxSounds int

	DefaultDistanceModel attenuation.Model
	DefaultRefDistance   float64
	DefaultMaxDistance   float64
	DefaultRolloffFactor float64
	EnableHRTF           bool

	Routing Routing

	// NewContext builds the device graph. The default is a soft context.
	NewContext func() (graph.Context, error)
	Fetcher    Fetcher
	Cache      *BufferCache
	Clock      Clock
	Logger     *slog.Logger
	// Rand seeds reverb impulse responses; nil uses the global generator.
	Rand *rand.Rand
}

func DefaultConfig() Config {
	return Config{
		MaxSounds:            32,
		DefaultDistanceModel: attenuation.Inverse,
		DefaultRefDistance:   1,
		DefaultMaxDistance:   100,
		DefaultRolloffFactor: 1,
		EnableHRTF:           true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if !c.DefaultDistanceModel.Valid() {
		c.DefaultDistanceModel = d.DefaultDistanceModel
	}
	if c.DefaultRefDistance <= 0 {
		c.DefaultRefDistance = d.DefaultRefDistance
	}
	if c.DefaultMaxDistance <= 0 {
		c.DefaultMaxDistance = d.DefaultMaxDistance
	}
	switch {
	case c.DefaultRolloffFactor == 0:
		c.DefaultRolloffFactor = d.DefaultRolloffFactor
	case c.DefaultRolloffFactor < 0:
		c.DefaultRolloffFactor = 0
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.NewContext == nil {
		logger := c.Logger
		c.NewContext = func() (graph.Context, error) {
			return soft.New(soft.WithLogger(logger))
		}
	}
	if c.Fetcher == nil {
		c.Fetcher = fetch.NewMux(os.DirFS("."), http.DefaultClient)
	}
	if c.Cache == nil {
		c.Cache = NewBufferCache()
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}

	return c
}

// resolve fills the zero fields of s from the manager defaults.
func (c Config) resolve(s SourceConfig) SourceConfig {
	if !s.DistanceModel.Valid() {
		s.DistanceModel = c.DefaultDistanceModel
	}
	if s.RefDistance <= 0 {
		s.RefDistance = c.DefaultRefDistance
	}
	if s.MaxDistance <= 0 {
		s.MaxDistance = c.DefaultMaxDistance
	}
	switch {
	case s.RolloffFactor == 0:
		s.RolloffFactor = c.DefaultRolloffFactor
	case s.RolloffFactor < 0:
		s.RolloffFactor = 0
	}
	s.Volume = resolveVolume(s.Volume)
	if s.PlaybackRate <= 0 {
		s.PlaybackRate = 1
	}
	if s.ConeInnerAngle == 0 && s.ConeOuterAngle == 0 {
		s.ConeInnerAngle, s.ConeOuterAngle = 360, 360
	}
	return s
}

// resolveVolume maps an unset volume to 1 and a negative one to silence.
func resolveVolume(v float64) float64 {
	switch {
	case v == 0:
		return 1
	case v < 0:
		return 0
	}
	return v
}
