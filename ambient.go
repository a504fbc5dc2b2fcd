// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"time"

	"github.com/ik5/audspace/graph"
)

// AmbientSource is a non-positional background sound: player -> gain ->
// environment.
type AmbientSource struct {
	playback

	cfg    AmbientConfig
	clock  Clock
	gain   graph.GainNode
	volume float64

	// cancelStop cancels the stop scheduled by FadeOut; fadeGen tells a stop
	// that fired late it was superseded.
	cancelStop func() bool
	fadeGen    uint64
}

func newAmbientSource(ctx graph.Context, buf graph.Buffer, cfg AmbientConfig, out graph.Node, clock Clock) *AmbientSource {
	g := ctx.CreateGain()
	g.Gain().SetValue(cfg.Volume)
	g.Connect(out)

	return &AmbientSource{
		playback: playback{
			ctx:    ctx,
			buffer: buf,
			loop:   cfg.Loop,
			rate:   1,
			into:   g,
		},
		cfg:    cfg,
		clock:  clock,
		gain:   g,
		volume: cfg.Volume,
	}
}

func (a *AmbientSource) Config() AmbientConfig { return a.cfg }

// Play starts the sound at its volume. Calling it during a fade-out cancels
// the fade and the pending stop.
func (a *AmbientSource) Play() {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed {
		return
	}
	a.cancelPendingStop()
	rampTo(a.ctx, a.gain.Gain(), a.volume, 0)
	a.play(0)
}

func (a *AmbientSource) Stop() {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.cancelPendingStop()
	a.stop()
}

// FadeIn ramps from silence to the volume over d, starting playback if needed.
// A running sound ramps from its current gain.
func (a *AmbientSource) FadeIn(d time.Duration) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed {
		return
	}
	a.cancelPendingStop()
	if a.state != Playing {
		rampTo(a.ctx, a.gain.Gain(), 0, 0)
		a.play(0)
	}
	rampTo(a.ctx, a.gain.Gain(), a.volume, d.Seconds())
}

// FadeOut ramps to silence over d and stops once the ramp completes.
func (a *AmbientSource) FadeOut(d time.Duration) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed || a.state != Playing {
		return
	}
	a.cancelPendingStop()
	rampTo(a.ctx, a.gain.Gain(), 0, d.Seconds())

	gen := a.fadeGen
	a.cancelStop = a.clock.AfterFunc(d, func() {
		a.mtx.Lock()
		defer a.mtx.Unlock()

		if gen != a.fadeGen {
			return
		}
		a.cancelStop = nil
		a.stop()
	})
}

func (a *AmbientSource) cancelPendingStop() {
	a.fadeGen++
	if a.cancelStop != nil {
		a.cancelStop()
		a.cancelStop = nil
	}
}

// SetVolume moves the gain to v, linearly over fade when fade is positive.
func (a *AmbientSource) SetVolume(v float64, fade time.Duration) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed {
		return
	}
	a.volume = v
	rampTo(a.ctx, a.gain.Gain(), v, fade.Seconds())
}

func (a *AmbientSource) Volume() float64 {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.volume
}

func (a *AmbientSource) State() PlaybackState {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.state
}

func (a *AmbientSource) IsPlaying() bool { return a.State() == Playing }

func (a *AmbientSource) route(out graph.Node) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed {
		return
	}
	a.gain.Disconnect()
	a.gain.Connect(out)
}

func (a *AmbientSource) Dispose() {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.disposed {
		return
	}
	a.cancelPendingStop()
	a.stop()
	a.gain.Disconnect()
	a.disposed = true
}
