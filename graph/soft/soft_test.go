// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"context"
	"errors"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ik5/audspace/graph"
)

const testRate = 8000

func newRunning(t testing.TB, opts ...Option) *Context {
	t.Helper()

	c, err := New(append([]Option{WithSampleRate(testRate)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Resume(context.Background()); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	return c
}

// render pulls frames stereo frames and returns them de-interleaved.
func render(t testing.TB, c *Context, frames int) (left, right []float32) {
	t.Helper()

	buf := make([]float32, frames*2)
	if _, err := c.Render(buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := range frames {
		left[i], right[i] = buf[i*2], buf[i*2+1]
	}
	return left, right
}

// constBuffer is a mono buffer of n frames holding v.
func constBuffer(t testing.TB, c *Context, n int, v float32) graph.Buffer {
	t.Helper()

	b, err := c.CreateBuffer(1, n, c.SampleRate())
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = v
	}
	b.CopyToChannel(data, 0)
	return b
}

func play(c *Context, b graph.Buffer, dst graph.Node, loop bool) graph.BufferSourceNode {
	s := c.CreateBufferSource()
	s.SetBuffer(b)
	s.SetLoop(loop)
	s.Connect(dst)
	s.Start(0, 0)
	return s
}

func TestNew_SampleRate(t *testing.T) {
	t.Parallel()

	for _, hz := range []float64{0, 2999, 768001} {
		if _, err := New(WithSampleRate(hz)); !errors.Is(err, ErrUnsupportedSampleRate) {
			t.Errorf("New(%v Hz) error = %v, want ErrUnsupportedSampleRate", hz, err)
		}
	}

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.SampleRate() != DefaultSampleRate || c.State() != graph.Suspended {
		t.Errorf("New() = %v Hz %v, want %v Hz suspended", c.SampleRate(), c.State(), DefaultSampleRate)
	}
}

func TestContext_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := New(WithSampleRate(testRate))
	play(c, constBuffer(t, c, 4096, 1), c.Destination(), false)

	left, _ := render(t, c, 256)
	if left[0] != 0 || c.CurrentTime() != 0 {
		t.Errorf("suspended context rendered %v at time %v", left[0], c.CurrentTime())
	}

	for range 2 {
		if err := c.Resume(ctx); err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
	}
	left, _ = render(t, c, 256)
	if left[0] != 1 {
		t.Errorf("running context rendered %v, want 1", left[0])
	}
	if got := c.CurrentTime(); got != 256.0/testRate {
		t.Errorf("CurrentTime() = %v, want %v", got, 256.0/testRate)
	}

	if err := c.Suspend(ctx); err != nil || c.State() != graph.Suspended {
		t.Errorf("Suspend() = %v, state %v", err, c.State())
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if err := c.Resume(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Resume() after Close error = %v, want ErrClosed", err)
	}
	if _, err := c.Render(make([]float32, 8)); !errors.Is(err, ErrClosed) {
		t.Errorf("Render() after Close error = %v, want ErrClosed", err)
	}
	if n, err := c.Output().ReadSamples(make([]float32, 8)); n != 0 || err != io.EOF {
		t.Errorf("Output().ReadSamples() after Close = %d, %v", n, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	c2, _ := New(WithSampleRate(testRate))
	if err := c2.Resume(canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("Resume(canceled) error = %v", err)
	}
}

func TestContext_PartialReads(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	b, _ := c.CreateBuffer(1, 1000, testRate)
	ramp := make([]float32, 1000)
	for i := range ramp {
		ramp[i] = float32(i) / 1000
	}
	b.CopyToChannel(ramp, 0)
	play(c, b, c.Destination(), false)

	// Odd read sizes must stitch quanta together without gaps.
	var got []float32
	for _, n := range []int{50, 3, 200, 67} {
		l, _ := render(t, c, n)
		got = append(got, l...)
	}
	for i, s := range got {
		if s != ramp[i] {
			t.Fatalf("frame %d = %v, want %v", i, s, ramp[i])
		}
	}
}

func TestParam_Automation(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	p := c.CreateGain().Gain().(*Param)

	p.SetValue(0)
	p.LinearRampToValueAtTime(1, 1)
	for _, tt := range []struct{ t, want float64 }{{0, 0}, {0.25, 0.25}, {0.5, 0.5}, {1, 1}, {2, 1}} {
		if got := p.at(tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ramp at %v = %v, want %v", tt.t, got, tt.want)
		}
	}

	p.CancelScheduledValues(0.5)
	if got := p.at(2); got != 0 {
		t.Errorf("after cancel value = %v, want the anchor 0", got)
	}

	p.SetValueAtTime(0.3, 0.1)
	p.SetValueAtTime(0.7, 0.2)
	if p.at(0.15) != 0.3 || p.at(0.25) != 0.7 {
		t.Errorf("steps = %v, %v", p.at(0.15), p.at(0.25))
	}

	p.SetValue(0.9)
	if p.Value() != 0.9 || len(p.events) != 0 {
		t.Errorf("SetValue left value %v with %d events", p.Value(), len(p.events))
	}
}

func TestParam_RampFromCurrentTime(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	g := c.CreateGain()
	g.Connect(c.Destination())
	play(c, constBuffer(t, c, testRate, 1), g, true)

	render(t, c, 1280) // now = 0.16s
	g.Gain().LinearRampToValueAtTime(0, 0.32)

	left, _ := render(t, c, 1280)
	if math.Abs(float64(left[0])-1) > 1e-3 {
		t.Errorf("ramp start = %v, want 1", left[0])
	}
	if math.Abs(float64(left[640])-0.5) > 1e-3 {
		t.Errorf("ramp midpoint = %v, want 0.5", left[640])
	}
	if left[1279] > 1e-3 {
		t.Errorf("ramp end = %v, want 0", left[1279])
	}
	// Past events are folded into the base value.
	render(t, c, 128)
	if p := g.Gain().(*Param); p.value != 0 || len(p.events) != 0 {
		t.Errorf("param value %v with %d events, want 0 with none", p.value, len(p.events))
	}
}

func TestBufferSource_Ended(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	ended := 0
	s := play(c, constBuffer(t, c, 200, 0.5), c.Destination(), false)
	s.OnEnded(func() { ended++ })

	left, _ := render(t, c, 256)
	if left[199] != 0.5 || left[200] != 0 {
		t.Errorf("edge = %v, %v; want 0.5, 0", left[199], left[200])
	}
	if ended != 1 || c.Stats().ActiveSources != 0 {
		t.Errorf("ended %d times, %d active", ended, c.Stats().ActiveSources)
	}

	// Stopping or restarting a finished node does nothing.
	s.Stop(0)
	s.Start(0, 0)
	render(t, c, 128)
	if ended != 1 || c.Stats().ActiveSources != 0 {
		t.Errorf("after reuse: ended %d times, %d active", ended, c.Stats().ActiveSources)
	}
}

func TestBufferSource_StopIsAsynchronous(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	s := play(c, constBuffer(t, c, 4096, 1), c.Destination(), true)

	stopped := make(chan struct{})
	ended := make(chan bool, 1)
	s.OnEnded(func() {
		select {
		case <-stopped:
			ended <- true
		case <-time.After(time.Second):
			ended <- false
		}
	})

	render(t, c, 128)
	s.Stop(0)
	close(stopped)

	// No Render follows; the callback must still arrive.
	select {
	case afterStop := <-ended:
		if !afterStop {
			t.Error("ended callback ran inside Stop")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ended callback never ran")
	}

	if left, _ := render(t, c, 128); left[0] != 0 {
		t.Errorf("output after Stop = %v, want 0", left[0])
	}

	var late atomic.Int32
	never := c.CreateBufferSource()
	never.OnEnded(func() { late.Add(1) })
	never.Stop(0)
	render(t, c, 128)
	if late.Load() != 0 {
		t.Error("stopping an unstarted node fired ended")
	}
}

func TestBufferSource_StopWithoutRenderingQueuesNothing(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	b := constBuffer(t, c, 4096, 1)

	var ended atomic.Int32
	for range 1000 {
		s := play(c, b, c.Destination(), true)
		s.OnEnded(func() { ended.Add(1) })
		s.Stop(0)
	}

	c.mtx.Lock()
	pending, active := len(c.pending), len(c.active)
	c.mtx.Unlock()
	if pending != 0 || active != 0 {
		t.Errorf("after 1000 start/stop cycles: %d pending callbacks, %d active sources", pending, active)
	}

	deadline := time.Now().Add(5 * time.Second)
	for ended.Load() != 1000 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := ended.Load(); got != 1000 {
		t.Errorf("ended callbacks = %d, want 1000", got)
	}
}

func TestBufferSource_ScheduledStop(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	s := play(c, constBuffer(t, c, 4096, 1), c.Destination(), true)
	s.Stop(100.0 / testRate)

	left, _ := render(t, c, 128)
	if left[99] != 1 || left[100] != 0 {
		t.Errorf("stop edge = %v, %v", left[99], left[100])
	}
}

func TestBufferSource_LoopRateOffset(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	const frames = 2004
	b, _ := c.CreateBuffer(2, frames, testRate)
	left, right := make([]float32, frames), make([]float32, frames)
	for i := range frames {
		left[i], right[i] = float32(i), float32(i+10000)
	}
	b.CopyToChannel(left, 0)
	b.CopyToChannel(right, 1)

	s := c.CreateBufferSource()
	s.SetBuffer(b)
	s.SetLoop(true)
	s.PlaybackRate().SetValue(2)
	s.Connect(c.Destination())
	s.Start(0, 0.25) // frame 2000

	gotL, gotR := render(t, c, 6)
	want := []float32{2000, 2002, 0, 2, 4, 6}
	for i := range want {
		if gotL[i] != want[i] || gotR[i] != want[i]+10000 {
			t.Fatalf("frame %d = %v/%v, want %v/%v", i, gotL[i], gotR[i], want[i], want[i]+10000)
		}
	}
}

func TestBufferSource_UnconnectedStillAdvances(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	ended := false
	s := c.CreateBufferSource()
	s.SetBuffer(constBuffer(t, c, 300, 1))
	s.OnEnded(func() { ended = true })
	s.Start(0, 0)

	render(t, c, 384)
	if !ended {
		t.Error("unconnected source never ended")
	}
}

func TestGraph_ConnectDisconnect(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	g := c.CreateGain()
	g.Gain().SetValue(0.5)
	g.Connect(c.Destination())
	g.Connect(c.Destination())
	c.CreateBiquadFilter()
	play(c, constBuffer(t, c, 4096, 1), g, true)

	stats := c.Stats()
	if stats.Reachable[kindGain] != 1 || stats.Reachable[kindBufferSource] != 1 || stats.Reachable[kindBiquad] != 0 {
		t.Errorf("Reachable = %v", stats.Reachable)
	}

	left, _ := render(t, c, 128)
	if left[0] != 0.5 {
		t.Errorf("output = %v, want 0.5 (double connect must not sum twice)", left[0])
	}

	g.Disconnect()
	left, _ = render(t, c, 128)
	if left[0] != 0 || len(c.Stats().Reachable) != 0 {
		t.Errorf("after Disconnect output %v, reachable %v", left[0], c.Stats().Reachable)
	}
}

func TestGraph_Cycle(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	a, b := c.CreateGain(), c.CreateGain()
	a.Gain().SetValue(0.5)
	a.Connect(b)
	b.Connect(a)
	b.Connect(c.Destination())
	play(c, constBuffer(t, c, 4096, 1), a, true)

	// A feedback loop sees the previous quantum and must not recurse forever.
	left, _ := render(t, c, 512)
	if math.IsNaN(float64(left[511])) || left[511] > 1.01 {
		t.Errorf("feedback output = %v", left[511])
	}
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	c := newRunning(t)
	if _, err := c.CreateBuffer(0, 10, testRate); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("CreateBuffer(0 channels) error = %v", err)
	}
	if _, err := c.CreateBuffer(1, 10, 100); !errors.Is(err, ErrUnsupportedSampleRate) {
		t.Errorf("CreateBuffer(100 Hz) error = %v", err)
	}
	if _, err := NewBuffer([][]float32{{1, 2}, {1}}, testRate); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("NewBuffer(ragged) error = %v", err)
	}

	b, _ := c.CreateBuffer(2, 4000, testRate)
	if b.Duration() != 0.5 || b.NumberOfChannels() != 2 || b.Length() != 4000 {
		t.Errorf("buffer = %v s, %d ch, %d frames", b.Duration(), b.NumberOfChannels(), b.Length())
	}
	if b.ChannelData(2) != nil {
		t.Error("ChannelData(out of range) != nil")
	}
	b.CopyToChannel([]float32{1, 2, 3}, 1)
	if b.ChannelData(1)[2] != 3 {
		t.Error("CopyToChannel did not write")
	}
}

func BenchmarkContext_Render(b *testing.B) {
	c := newRunning(b, WithSampleRate(48000))
	pan := c.CreatePanner()
	f := c.CreateBiquadFilter()
	pan.Connect(f)
	f.Connect(c.Destination())
	graph.SetPosition(pan, 3, 0, -2)
	play(c, constBuffer(b, c, 48000, 0.5), pan, true)

	buf := make([]float32, 1024)
	b.ReportAllocs()
	for b.Loop() {
		_, _ = c.Render(buf)
	}
}
