// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/internal/audiotest"
)

// prefixDecoder recognises headers starting with prefix.
type prefixDecoder struct {
	prefix string
	err    error
}

func (p prefixDecoder) Sniff(header []byte) bool {
	return bytes.HasPrefix(header, []byte(p.prefix))
}

func (p prefixDecoder) Decode(r io.Reader) (audio.Source, error) {
	if p.err != nil {
		return nil, p.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// Decoders must see the stream from the first byte.
	return audiotest.NewSilentSource(8000, 1, len(data)), nil
}

// plainDecoder cannot sniff.
type plainDecoder struct{}

func (plainDecoder) Decode(io.Reader) (audio.Source, error) { return nil, nil }

func TestRegistry_RegisterGet(t *testing.T) {
	t.Parallel()

	r := audio.NewRegistry()
	r.Register("a", prefixDecoder{prefix: "A"})
	r.Register("b", plainDecoder{})
	r.Register("a", prefixDecoder{prefix: "AA"})

	if got := r.Formats(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Formats() = %v, want [a b]", got)
	}

	d, ok := r.Get("a")
	if !ok || d.(prefixDecoder).prefix != "AA" {
		t.Errorf("Get(a) = %v, %v; want replaced decoder", d, ok)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
}

func TestRegistry_Detect(t *testing.T) {
	t.Parallel()

	r := audio.NewRegistry()
	r.Register("plain", plainDecoder{})
	r.Register("loose", prefixDecoder{prefix: "X"})
	r.Register("strict", prefixDecoder{prefix: "XY"})

	// Registration order wins when two sniffers match.
	if format, _, ok := r.Detect([]byte("XYZ")); !ok || format != "loose" {
		t.Errorf("Detect(XYZ) = %q, %v; want loose", format, ok)
	}
	if _, _, ok := r.Detect([]byte("plain")); ok {
		t.Error("Detect(plain) ok = true, decoders without Sniff must be skipped")
	}
}

func TestRegistry_Open(t *testing.T) {
	t.Parallel()

	r := audio.NewRegistry()
	r.Register("tone", prefixDecoder{prefix: "TONE"})
	r.Register("bad", prefixDecoder{prefix: "BAD", err: io.ErrUnexpectedEOF})

	payload := []byte("TONE-payload-longer-than-the-sniff-window")

	readers := map[string]io.Reader{
		"seeker": bytes.NewReader(payload),
		"stream": io.MultiReader(bytes.NewReader(payload)),
	}
	for name, rd := range readers {
		format, src, err := r.Open(rd)
		if err != nil || format != "tone" {
			t.Fatalf("%s: Open() = %q, %v", name, format, err)
		}
		planar, _ := audio.ReadAll(src, 64)
		if len(planar[0]) != len(payload) {
			t.Errorf("%s: decoder saw %d bytes, want %d", name, len(planar[0]), len(payload))
		}
	}

	if _, _, err := r.Open(bytes.NewReader([]byte("??"))); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("Open(unknown) error = %v, want ErrUnknownFormat", err)
	}
	if _, _, err := r.Open(bytes.NewReader([]byte("BAD"))); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Open(bad) error = %v, want wrapped decoder error", err)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	r := audio.NewRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register(string(rune('a'+i)), prefixDecoder{prefix: "P"})
			r.Detect([]byte("P"))
		}()
	}
	wg.Wait()

	if got := len(r.Formats()); got != 8 {
		t.Errorf("len(Formats()) = %d, want 8", got)
	}
}
