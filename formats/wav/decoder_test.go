// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/formats/wav"
	"github.com/ik5/audspace/internal/audiotest"
)

func TestDecoder_Sniff(t *testing.T) {
	t.Parallel()

	d := wav.Decoder{}
	if !d.Sniff([]byte("RIFF\x24\x00\x00\x00WAVEfmt ")) {
		t.Error("Sniff(RIFF/WAVE) = false, want true")
	}
	for _, h := range [][]byte{[]byte("RIFF\x24\x00\x00\x00AVI "), []byte("RIFF"), []byte("FORM\x00\x00\x00\x00AIFF")} {
		if d.Sniff(h) {
			t.Errorf("Sniff(%q) = true, want false", h)
		}
	}
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		channels int
	}{
		{name: "mono 8k", rate: 8000, channels: 1},
		{name: "stereo 44.1k", rate: 44100, channels: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wave := func(frame, ch int) float32 {
				return float32(math.Sin(float64(frame+ch)/10)) * 0.5
			}
			data := audiotest.WAV(t, tt.rate, tt.channels, 1000, wave)

			// A plain io.Reader exercises the buffering path.
			src, err := wav.Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			defer src.Close()

			if src.SampleRate() != tt.rate || src.Channels() != tt.channels {
				t.Fatalf("Decode() = %d Hz %d ch, want %d Hz %d ch",
					src.SampleRate(), src.Channels(), tt.rate, tt.channels)
			}

			planar, err := audio.ReadAll(src, 256)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}

			for c := range tt.channels {
				if len(planar[c]) != 1000 {
					t.Fatalf("channel %d has %d frames, want 1000", c, len(planar[c]))
				}
				for f := 0; f < 1000; f += 97 {
					if diff := math.Abs(float64(planar[c][f] - wave(f, c))); diff > 1e-4 {
						t.Errorf("frame %d ch %d = %v, want %v", f, c, planar[c][f], wave(f, c))
					}
				}
			}
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	valid := audiotest.WAV(t, 8000, 1, 10, func(int, int) float32 { return 0 })

	float := bytes.Clone(valid)
	binary.LittleEndian.PutUint16(float[20:22], 3) // IEEE float

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "garbage", data: []byte("definitely not a wav file"), wantErr: wav.ErrNotWavFile},
		{name: "float encoding", data: float, wantErr: wav.ErrUnsupportedEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := wav.Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWritePCM16(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := wav.WritePCM16(&buf, 22050, 2, []int16{1, -1, 300, -300}); err != nil {
		t.Fatalf("WritePCM16() error = %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44+8 {
		t.Fatalf("len = %d, want 52", len(data))
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 2 {
		t.Errorf("channels = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 22050*4 {
		t.Errorf("byte rate = %d, want %d", got, 22050*4)
	}
	if got := int16(binary.LittleEndian.Uint16(data[46:48])); got != -1 {
		t.Errorf("second sample = %d, want -1", got)
	}

	if err := wav.WritePCM16(&buf, 22050, 0, nil); !errors.Is(err, wav.ErrInvalidChannels) {
		t.Errorf("WritePCM16(0 channels) error = %v, want ErrInvalidChannels", err)
	}
}

func ExampleWriteWAV16() {
	var buf bytes.Buffer
	_ = wav.WriteWAV16(&buf, 16000, []int16{0, 1000, -1000})

	src, _ := wav.Decoder{}.Decode(bytes.NewReader(buf.Bytes()))
	planar, _ := audio.ReadAll(src, 64)

	fmt.Println(src.SampleRate(), src.Channels(), len(planar[0]))
	// Output: 16000 1 3
}
