// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"io"
	"log/slog"

	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/formats"
)

const (
	DefaultSampleRate = 48000

	minSampleRate = 3000
	maxSampleRate = 768000
	maxChannels   = 32
)

type options struct {
	sampleRate float64
	registry   *audio.Registry
	logger     *slog.Logger
	legacyPose bool
}

// Option configures a Context.
type Option func(*options)

// WithSampleRate sets the rendering rate in Hz.
func WithSampleRate(hz float64) Option {
	return func(o *options) { o.sampleRate = hz }
}

// WithRegistry replaces the decoders used by DecodeAudioData.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLegacyPose hides the parameter form of panner and listener pose, leaving
// only the SetPosition/SetOrientation methods, as older browsers do.
func WithLegacyPose(legacy bool) Option {
	return func(o *options) { o.legacyPose = legacy }
}

func defaultOptions() options {
	return options{
		sampleRate: DefaultSampleRate,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (o *options) resolve() {
	if o.registry == nil {
		o.registry = formats.Default()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
