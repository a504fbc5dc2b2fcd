// SPDX-License-Identifier: EPL-2.0

// Package soft is a pure Go implementation of the graph device.
//
// Rendering is pull based and runs in quanta of 128 stereo frames. Every pull
// starts at the destination, which asks its inputs for their output in the
// current quantum; each node renders at most once per quantum. Started buffer
// sources are advanced even when nothing downstream is connected, so their
// timing matches a real device.
//
// The context renders only when its Output is read, by a speaker, a WAV
// writer or a test. A suspended context outputs silence and its clock stands
// still.
package soft

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ik5/audspace/graph"
)

// Quantum is the number of frames rendered per graph pass.
const Quantum = 128

// block is one quantum of stereo audio.
type block [2][Quantum]float32

func (b *block) clear() { *b = block{} }

func (b *block) add(o *block) {
	for c := range b {
		for i := range b[c] {
			b[c][i] += o[c][i]
		}
	}
}

// Context renders a node graph. It is safe for concurrent use: node and param
// methods may be called from any goroutine while another one renders.
type Context struct {
	mtx sync.Mutex

	sampleRate float64
	state      graph.State
	legacyPose bool
	opts       options
	logger     *slog.Logger

	// frame is the number of frames rendered so far; it drives CurrentTime.
	frame   int64
	quantum int64

	dest     *Destination
	listener *Listener

	active  map[*BufferSource]struct{}
	created int

	// pending holds ended callbacks queued while the lock was held.
	pending []func()

	out    block
	outPos int
}

var _ graph.Context = (*Context)(nil)

// New creates a suspended context.
func New(opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.resolve()

	if o.sampleRate < minSampleRate || o.sampleRate > maxSampleRate {
		return nil, ErrUnsupportedSampleRate
	}

	c := &Context{
		sampleRate: o.sampleRate,
		state:      graph.Suspended,
		legacyPose: o.legacyPose,
		opts:       o,
		logger:     o.logger,
		active:     make(map[*BufferSource]struct{}),
		outPos:     Quantum,
	}
	c.dest = &Destination{}
	c.dest.init(c, kindDestination, c.dest)
	c.listener = newListener(c)

	return c, nil
}

func (c *Context) SampleRate() float64 { return c.sampleRate }

func (c *Context) CurrentTime() float64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.now()
}

func (c *Context) now() float64 { return float64(c.frame) / c.sampleRate }

func (c *Context) State() graph.State {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.state
}

// Resume starts the clock. Resuming a running context does nothing.
func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	switch c.state {
	case graph.Closed:
		return ErrClosed
	case graph.Suspended:
		c.state = graph.Running
		c.logger.Debug("context resumed", "time", c.now())
	}
	return nil
}

func (c *Context) Suspend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	switch c.state {
	case graph.Closed:
		return ErrClosed
	case graph.Running:
		c.state = graph.Suspended
		c.logger.Debug("context suspended", "time", c.now())
	}
	return nil
}

// Close stops rendering for good. Active sources are dropped without firing
// their ended callbacks.
func (c *Context) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.state == graph.Closed {
		return ErrClosed
	}
	c.state = graph.Closed
	clear(c.active)
	c.pending = nil
	c.logger.Debug("context closed", "time", c.now())

	return nil
}

func (c *Context) Destination() graph.Node  { return c.dest }
func (c *Context) Listener() graph.Listener { return c.listener }

// render produces the next quantum into c.out. Callers hold c.mtx.
func (c *Context) render() {
	c.quantum++

	// Sources first, so ones that are not connected still advance.
	for s := range c.active {
		s.pull(c.quantum)
	}

	c.out = *c.dest.pull(c.quantum)
	c.frame += Quantum
}

// Render fills dst with interleaved stereo samples and returns how many were
// written. A suspended context writes silence without advancing its clock.
// Ended callbacks queued by the pass run before Render returns, after the
// lock is released.
func (c *Context) Render(dst []float32) (int, error) {
	c.mtx.Lock()

	if c.state == graph.Closed {
		c.mtx.Unlock()
		return 0, ErrClosed
	}

	frames := len(dst) / 2
	if c.state == graph.Suspended {
		clear(dst[:frames*2])
	} else {
		for written := 0; written < frames; {
			if c.outPos == Quantum {
				c.render()
				c.outPos = 0
			}

			n := min(Quantum-c.outPos, frames-written)
			for i := range n {
				dst[(written+i)*2] = c.out[0][c.outPos+i]
				dst[(written+i)*2+1] = c.out[1][c.outPos+i]
			}
			c.outPos += n
			written += n
		}
	}

	pending := c.pending
	c.pending = nil
	c.mtx.Unlock()

	for _, f := range pending {
		f()
	}

	return frames * 2, nil
}

// queueEnded defers f until the current render releases the lock.
func (c *Context) queueEnded(f func()) {
	if f != nil {
		c.pending = append(c.pending, f)
	}
}

// Stats is a snapshot of the graph for diagnostics.
type Stats struct {
	Frames int64
	// ActiveSources counts buffer sources that started and have not ended.
	ActiveSources int
	// SourcesCreated counts every CreateBufferSource call.
	SourcesCreated int
	// Reachable counts, by kind, the nodes whose output reaches the destination.
	Reachable map[string]int
}

func (c *Context) Stats() Stats {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	reach := make(map[string]int)
	seen := map[*node]bool{&c.dest.node: true}
	stack := []*node{&c.dest.node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, in := range n.ins {
			if !seen[in] {
				seen[in] = true
				reach[in.kind]++
				stack = append(stack, in)
			}
		}
	}

	return Stats{
		Frames:         c.frame,
		ActiveSources:  len(c.active),
		SourcesCreated: c.created,
		Reachable:      reach,
	}
}
