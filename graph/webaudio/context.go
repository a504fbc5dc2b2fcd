// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import (
	"context"
	"fmt"

	"github.com/gopherjs/gopherjs/js"

	"github.com/ik5/audspace/graph"
)

// Context wraps a browser AudioContext.
type Context struct {
	obj      *js.Object
	dest     *node
	listener *Listener
}

var _ graph.Context = (*Context)(nil)

func defined(o *js.Object) bool { return o != nil && o != js.Undefined }

// New creates an AudioContext, falling back to the prefixed constructor of
// older Safari releases.
func New() (*Context, error) {
	ctor := js.Global.Get("AudioContext")
	if !defined(ctor) {
		ctor = js.Global.Get("webkitAudioContext")
	}
	if !defined(ctor) {
		return nil, ErrUnsupported
	}

	obj := ctor.New()
	return &Context{
		obj:      obj,
		dest:     &node{obj: obj.Get("destination")},
		listener: &Listener{obj: obj.Get("listener")},
	}, nil
}

func (c *Context) SampleRate() float64  { return c.obj.Get("sampleRate").Float() }
func (c *Context) CurrentTime() float64 { return c.obj.Get("currentTime").Float() }

func (c *Context) State() graph.State {
	switch c.obj.Get("state").String() {
	case "running":
		return graph.Running
	case "closed":
		return graph.Closed
	}
	return graph.Suspended
}

// await blocks until p settles or ctx ends, and returns its value.
func await(ctx context.Context, p *js.Object) (*js.Object, error) {
	type result struct {
		v   *js.Object
		err error
	}
	ch := make(chan result, 1)
	p.Call("then",
		func(v *js.Object) { ch <- result{v: v} },
		func(e *js.Object) { ch <- result{err: fmt.Errorf("%w: %s", ErrRejected, e.String())} },
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

func (c *Context) Resume(ctx context.Context) error {
	_, err := await(ctx, c.obj.Call("resume"))
	return err
}

func (c *Context) Suspend(ctx context.Context) error {
	_, err := await(ctx, c.obj.Call("suspend"))
	return err
}

func (c *Context) Close(ctx context.Context) error {
	_, err := await(ctx, c.obj.Call("close"))
	return err
}

func (c *Context) Destination() graph.Node  { return c.dest }
func (c *Context) Listener() graph.Listener { return c.listener }

func (c *Context) CreateGain() graph.GainNode {
	return &Gain{node{obj: c.obj.Call("createGain")}}
}

func (c *Context) CreatePanner() graph.PannerNode {
	return &Panner{node{obj: c.obj.Call("createPanner")}}
}

func (c *Context) CreateBiquadFilter() graph.BiquadFilterNode {
	return &BiquadFilter{node{obj: c.obj.Call("createBiquadFilter")}}
}

func (c *Context) CreateConvolver() graph.ConvolverNode {
	return &Convolver{node: node{obj: c.obj.Call("createConvolver")}, ctx: c}
}

func (c *Context) CreateBufferSource() graph.BufferSourceNode {
	return &BufferSource{node: node{obj: c.obj.Call("createBufferSource")}, ctx: c}
}

func (c *Context) CreateBuffer(channels, length int, sampleRate float64) (buf graph.Buffer, err error) {
	// createBuffer throws NotSupportedError for out-of-range arguments.
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("creating buffer: %v", r)
		}
	}()

	return &Buffer{obj: c.obj.Call("createBuffer", channels, length, sampleRate)}, nil
}

func (c *Context) DecodeAudioData(ctx context.Context, data []byte) (graph.Buffer, error) {
	v, err := await(ctx, c.obj.Call("decodeAudioData", js.NewArrayBuffer(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding audio data: %w", err)
	}
	return &Buffer{obj: v}, nil
}

// audioBuffer returns b as an AudioBuffer object, copying buffers that were
// not created by a web audio context.
func (c *Context) audioBuffer(b graph.Buffer) *js.Object {
	if b == nil {
		return nil
	}
	if wb, ok := b.(*Buffer); ok {
		return wb.obj
	}

	obj := c.obj.Call("createBuffer", b.NumberOfChannels(), b.Length(), b.SampleRate())
	for ch := range b.NumberOfChannels() {
		obj.Call("copyToChannel", b.ChannelData(ch), ch)
	}
	return obj
}
