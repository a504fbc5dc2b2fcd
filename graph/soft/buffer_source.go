// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/utils"
)

type playState uint8

const (
	unstarted playState = iota
	started
	ended
)

// BufferSource plays a Buffer once, or in a loop, starting at a scheduled time.
type BufferSource struct {
	node

	buf   graph.Buffer
	data  [][]float32
	loop  bool
	rate  *Param
	state playState

	startAt, stopAt float64
	// pos is the read position in buffer frames.
	pos     float64
	onEnded func()
}

var _ graph.BufferSourceNode = (*BufferSource)(nil)

func (c *Context) CreateBufferSource() graph.BufferSourceNode {
	c.mtx.Lock()
	c.created++
	c.mtx.Unlock()

	s := &BufferSource{
		rate:   newParam(c, 1, -1024, 1024),
		stopAt: math.Inf(1),
	}
	s.init(c, kindBufferSource, s)
	return s
}

func (s *BufferSource) SetBuffer(b graph.Buffer) {
	var data [][]float32
	if b != nil {
		for ch := range b.NumberOfChannels() {
			data = append(data, b.ChannelData(ch))
		}
	}

	s.ctx.mtx.Lock()
	defer s.ctx.mtx.Unlock()

	s.buf, s.data = b, data
}

func (s *BufferSource) SetLoop(loop bool) {
	s.ctx.mtx.Lock()
	defer s.ctx.mtx.Unlock()

	s.loop = loop
}

func (s *BufferSource) PlaybackRate() graph.Param { return s.rate }

// Start may be called once; later calls are ignored.
func (s *BufferSource) Start(when, offset float64) {
	s.ctx.mtx.Lock()
	defer s.ctx.mtx.Unlock()

	if s.state != unstarted || s.ctx.state == graph.Closed {
		return
	}
	s.state = started
	s.startAt = max(when, 0)
	if s.buf != nil && offset > 0 {
		s.pos = offset * s.buf.SampleRate()
		if s.loop {
			s.pos = math.Mod(s.pos, float64(len(s.data[0])))
		}
	}
	s.ctx.active[s] = struct{}{}
}

// Stop ends playback at when. A time at or before the current one ends it
// immediately; the ended callback then runs on its own goroutine, so it
// neither runs inside Stop nor waits for a Render that may never come.
func (s *BufferSource) Stop(when float64) {
	s.ctx.mtx.Lock()
	defer s.ctx.mtx.Unlock()

	if s.state != started {
		return
	}
	if when <= s.ctx.now() {
		s.state = ended
		delete(s.ctx.active, s)
		if f := s.onEnded; f != nil {
			go f()
		}
		return
	}
	s.stopAt = when
}

func (s *BufferSource) OnEnded(f func()) {
	s.ctx.mtx.Lock()
	defer s.ctx.mtx.Unlock()

	s.onEnded = f
}

// end is called with the context lock held.
func (s *BufferSource) end() {
	s.state = ended
	delete(s.ctx.active, s)
	s.ctx.queueEnded(s.onEnded)
}

func (s *BufferSource) process(_, out *block) {
	out.clear()
	if s.state != started {
		return
	}

	sr := s.ctx.sampleRate
	frame := s.ctx.frame
	s.rate.prune(float64(frame) / sr)

	if len(s.data) == 0 {
		if float64(frame+Quantum)/sr > s.stopAt {
			s.end()
		}
		return
	}

	length := len(s.data[0])
	step := s.rate.at(float64(frame)/sr) * s.buf.SampleRate() / sr
	left, right := s.data[0], s.data[min(1, len(s.data)-1)]

	for i := range Quantum {
		t := float64(frame+int64(i)) / sr
		if t < s.startAt {
			continue
		}
		if t >= s.stopAt {
			s.end()
			return
		}
		if s.pos >= float64(length) || s.pos < 0 {
			if !s.loop {
				s.end()
				return
			}
			s.pos = math.Mod(s.pos, float64(length))
			if s.pos < 0 {
				s.pos += float64(length)
			}
		}

		out[0][i] = sample(left, s.pos, s.loop)
		out[1][i] = sample(right, s.pos, s.loop)
		s.pos += step
	}
}

// sample reads data at a fractional frame position with cubic interpolation.
func sample(data []float32, pos float64, loop bool) float32 {
	i := int(pos)
	frac := float32(pos - float64(i))
	at := func(j int) float32 {
		if j >= 0 && j < len(data) {
			return data[j]
		}
		if loop {
			return data[(j%len(data)+len(data))%len(data)]
		}
		return 0
	}
	if frac == 0 {
		return at(i)
	}
	return utils.CubicInterpolate(at(i-1), at(i), at(i+1), at(i+2), frac)
}
