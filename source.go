// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"time"

	"github.com/ik5/audspace/graph"
)

// Source is a positional sound: player -> panner -> gain -> environment.
// A Source is safe for concurrent use.
type Source struct {
	playback

	cfg    SourceConfig
	panner graph.PannerNode
	gain   graph.GainNode
	volume float64
}

func newSource(ctx graph.Context, buf graph.Buffer, cfg SourceConfig, out graph.Node, hrtf bool) *Source {
	p := ctx.CreatePanner()
	if hrtf {
		p.SetPanningModel(graph.HRTF)
	} else {
		p.SetPanningModel(graph.EqualPower)
	}
	p.SetDistanceModel(cfg.DistanceModel)
	p.SetRefDistance(cfg.RefDistance)
	p.SetMaxDistance(cfg.MaxDistance)
	p.SetRolloffFactor(cfg.RolloffFactor)
	p.SetConeInnerAngle(cfg.ConeInnerAngle)
	p.SetConeOuterAngle(cfg.ConeOuterAngle)
	p.SetConeOuterGain(cfg.ConeOuterGain)

	g := ctx.CreateGain()
	g.Gain().SetValue(cfg.Volume)

	p.Connect(g)
	g.Connect(out)

	return &Source{
		playback: playback{
			ctx:    ctx,
			buffer: buf,
			loop:   cfg.Loop,
			rate:   cfg.PlaybackRate,
			into:   p,
		},
		cfg:    cfg,
		panner: p,
		gain:   g,
		volume: cfg.Volume,
	}
}

func (s *Source) Config() SourceConfig { return s.cfg }

// Play starts playback at offset seconds. It does nothing while playing.
func (s *Source) Play(offset float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.play(offset)
}

func (s *Source) Pause() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.pause()
}

// Resume continues a paused source from where it paused.
func (s *Source) Resume() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.resume()
}

func (s *Source) Stop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.stop()
}

func (s *Source) State() PlaybackState {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.state
}

func (s *Source) IsPlaying() bool { return s.State() == Playing }

// Offset returns the playback position in seconds.
func (s *Source) Offset() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.position()
}

func (s *Source) Duration() float64 { return s.buffer.Duration() }

// SetPosition moves the emitter in listener space.
func (s *Source) SetPosition(x, y, z float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.disposed {
		return
	}
	graph.SetPosition(s.panner, x, y, z)
}

// SetOrientation points the emitter cone along (x, y, z).
func (s *Source) SetOrientation(x, y, z float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.disposed {
		return
	}
	graph.SetOrientation(s.panner, x, y, z)
}

// SetVolume moves the gain to v, linearly over fade when fade is positive.
func (s *Source) SetVolume(v float64, fade time.Duration) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.disposed {
		return
	}
	s.volume = v
	rampTo(s.ctx, s.gain.Gain(), v, fade.Seconds())
}

// Volume returns the target volume of the last SetVolume.
func (s *Source) Volume() float64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.volume
}

// SetPlaybackRate changes the rate of the running player. It does nothing
// when no player exists; a later Play uses the configured rate.
func (s *Source) SetPlaybackRate(rate float64) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.player == nil {
		return
	}
	s.player.PlaybackRate().SetValue(rate)
}

// Panner exposes the underlying panner node.
func (s *Source) Panner() graph.PannerNode { return s.panner }

func (s *Source) route(out graph.Node) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.disposed {
		return
	}
	s.gain.Disconnect()
	s.gain.Connect(out)
}

// Dispose stops the source and detaches it from the graph.
func (s *Source) Dispose() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.disposed {
		return
	}
	s.stop()
	s.panner.Disconnect()
	s.gain.Disconnect()
	s.disposed = true
}
