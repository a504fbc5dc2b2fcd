// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"math"
	"sync"

	"github.com/ik5/audspace/graph"
)

type PlaybackState uint8

const (
	Stopped PlaybackState = iota
	Playing
	Paused
)

func (s PlaybackState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// playback owns the single-use buffer player behind a sound. Every method
// except position expects mtx to be held.
type playback struct {
	mtx sync.Mutex

	ctx    graph.Context
	buffer graph.Buffer
	loop   bool
	rate   float64
	// into receives the player output.
	into graph.Node

	player    graph.BufferSourceNode
	state     PlaybackState
	startTime float64
	offset    float64
	// gen identifies the current player; ended events from older players are
	// ignored.
	gen      uint64
	disposed bool
}

// start creates a fresh player and starts it at offset seconds.
func (p *playback) start(offset float64) {
	p.gen++
	gen := p.gen

	pl := p.ctx.CreateBufferSource()
	pl.SetBuffer(p.buffer)
	pl.SetLoop(p.loop)
	pl.PlaybackRate().SetValue(p.rate)
	pl.Connect(p.into)
	pl.OnEnded(func() {
		p.mtx.Lock()
		defer p.mtx.Unlock()

		p.ended(gen)
	})

	now := p.ctx.CurrentTime()
	pl.Start(now, offset)

	p.player = pl
	p.startTime = now - offset
	p.state = Playing
}

// halt stops and releases the current player, if any.
func (p *playback) halt() {
	p.gen++
	if p.player == nil {
		return
	}
	p.player.Stop(p.ctx.CurrentTime())
	p.player.Disconnect()
	p.player = nil
}

func (p *playback) ended(gen uint64) {
	if gen != p.gen || p.state != Playing {
		return
	}
	p.player.Disconnect()
	p.player = nil
	p.state = Stopped
	p.offset = 0
}

func (p *playback) play(offset float64) bool {
	if p.disposed || p.state == Playing || p.buffer == nil {
		return false
	}
	p.start(offset)
	return true
}

func (p *playback) pause() {
	if p.state != Playing {
		return
	}
	offset := p.ctx.CurrentTime() - p.startTime
	if p.loop {
		if d := p.buffer.Duration(); d > 0 {
			offset = math.Mod(offset, d)
		}
	}
	p.halt()
	p.offset = offset
	p.state = Paused
}

func (p *playback) resume() {
	if p.disposed || p.state != Paused {
		return
	}
	p.start(p.offset)
}

func (p *playback) stop() {
	p.halt()
	p.state = Stopped
	p.offset = 0
}

// position is the playback position in seconds.
func (p *playback) position() float64 {
	switch p.state {
	case Playing:
		return p.ctx.CurrentTime() - p.startTime
	case Paused:
		return p.offset
	}
	return 0
}

// rampTo moves g to v over fade seconds, starting from its current value.
func rampTo(ctx graph.Context, g graph.Param, v, fade float64) {
	if fade <= 0 {
		g.CancelScheduledValues(0)
		g.SetValue(v)
		return
	}
	now := ctx.CurrentTime()
	cur := g.Value()
	g.CancelScheduledValues(now)
	g.SetValueAtTime(cur, now)
	g.LinearRampToValueAtTime(v, now+fade)
}
