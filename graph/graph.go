// SPDX-License-Identifier: EPL-2.0

// Package graph defines the device audio graph the spatial engine orchestrates.
//
// The contract mirrors the Web Audio node model: a Context creates nodes, nodes are
// connected into a directed graph that ends at the context destination, and node
// parameters accept both immediate values and scheduled automation against the
// context clock.
//
// Two implementations ship with the module:
//   - graph/soft, a pure Go renderer that can be pulled as an audio.Source
//   - graph/webaudio, a browser backend built with GopherJS (js builds only)
//
// Some capabilities differ between devices (parameter-object versus legacy method
// forms for panner and listener pose). Those are expressed as optional interfaces
// and must be discovered with a type assertion at the call site.
package graph

import "context"

// State of a device context.
type State uint8

const (
	Suspended State = iota
	Running
	Closed
)

func (s State) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Context owns the device clock, the destination and the node factories.
type Context interface {
	SampleRate() float64
	// CurrentTime is the processing-graph clock in seconds.
	CurrentTime() float64
	State() State

	Resume(ctx context.Context) error
	Suspend(ctx context.Context) error
	Close(ctx context.Context) error

	Destination() Node
	Listener() Listener

	CreateGain() GainNode
	CreatePanner() PannerNode
	CreateBiquadFilter() BiquadFilterNode
	CreateConvolver() ConvolverNode
	CreateBufferSource() BufferSourceNode
	CreateBuffer(channels, length int, sampleRate float64) (Buffer, error)

	// DecodeAudioData decodes an encoded asset into a buffer at the context sample rate.
	DecodeAudioData(ctx context.Context, data []byte) (Buffer, error)
}

// Node is a vertex of the graph.
type Node interface {
	// Connect routes this node's output into dst. Connecting twice is a no-op.
	Connect(dst Node)
	// Disconnect removes every outgoing connection of this node.
	Disconnect()
}

// Param is an automatable node parameter.
type Param interface {
	// Value is the parameter value at the current context time.
	Value() float64
	// SetValue sets the value immediately.
	SetValue(v float64)
	SetValueAtTime(v, t float64)
	LinearRampToValueAtTime(v, t float64)
	// CancelScheduledValues drops every scheduled event at or after t.
	CancelScheduledValues(t float64)
}

type GainNode interface {
	Node
	Gain() Param
}

type BiquadFilterNode interface {
	Node
	SetType(t FilterType)
	Frequency() Param
	Q() Param
}

type ConvolverNode interface {
	Node
	// SetBuffer sets the impulse response; nil silences the node.
	SetBuffer(b Buffer)
	SetNormalize(normalize bool)
}

// BufferSourceNode is a one-shot playback primitive. Once started it cannot be
// started again; a new node must be created for every playback.
type BufferSourceNode interface {
	Node
	SetBuffer(b Buffer)
	SetLoop(loop bool)
	PlaybackRate() Param
	// Start begins playback at context time when, offset seconds into the buffer.
	Start(when, offset float64)
	// Stop ends playback at context time when. Stopping a node that never
	// started or has already ended does nothing.
	Stop(when float64)
	// OnEnded registers f to run after playback ends, naturally or by Stop.
	OnEnded(f func())
}

// PannerNode spatializes its input. Pose is set through the optional ParamPositioner,
// ParamOrienter, LegacyPositioner and LegacyOrienter interfaces.
type PannerNode interface {
	Node
	SetPanningModel(m PanningModel)
	SetDistanceModel(m DistanceModel)
	SetRefDistance(d float64)
	SetMaxDistance(d float64)
	SetRolloffFactor(f float64)
	SetConeInnerAngle(deg float64)
	SetConeOuterAngle(deg float64)
	SetConeOuterGain(g float64)
}

// Listener is the context's spatial listener. Its capabilities are exposed through
// ListenerParams and LegacyListener.
type Listener interface{}

// Buffer is decoded, planar PCM owned by a context.
type Buffer interface {
	SampleRate() float64
	Length() int
	Duration() float64
	NumberOfChannels() int
	// ChannelData returns the samples of channel ch. Implementations may return a copy.
	ChannelData(ch int) []float32
	CopyToChannel(src []float32, ch int)
}
