// SPDX-License-Identifier: EPL-2.0

//go:build js

package webaudio

import (
	"github.com/gopherjs/gopherjs/js"

	"github.com/ik5/audspace/graph"
)

// Buffer wraps an AudioBuffer.
type Buffer struct {
	obj *js.Object
}

var _ graph.Buffer = (*Buffer)(nil)

func (b *Buffer) SampleRate() float64   { return b.obj.Get("sampleRate").Float() }
func (b *Buffer) Length() int           { return b.obj.Get("length").Int() }
func (b *Buffer) Duration() float64     { return b.obj.Get("duration").Float() }
func (b *Buffer) NumberOfChannels() int { return b.obj.Get("numberOfChannels").Int() }

// ChannelData returns a copy of channel ch, or nil when ch is out of range.
func (b *Buffer) ChannelData(ch int) []float32 {
	if ch < 0 || ch >= b.NumberOfChannels() {
		return nil
	}
	data := make([]float32, b.Length())
	// The backing Float32Array of a fresh slice starts at offset 0.
	js.InternalObject(data).Get("$array").Call("set", b.obj.Call("getChannelData", ch))
	return data
}

func (b *Buffer) CopyToChannel(src []float32, ch int) {
	if ch < 0 || ch >= b.NumberOfChannels() {
		return
	}
	b.obj.Call("copyToChannel", src, ch)
}
