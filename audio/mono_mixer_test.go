// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"testing"

	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/internal/audiotest"
)

func TestMonoMixer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		want     float32
	}{
		{name: "mono passthrough", channels: 1, want: 0},
		{name: "stereo", channels: 2, want: 0.5},
		{name: "5.1", channels: 6, want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Channel c carries the value c, so the mean is (channels-1)/2.
			src := audiotest.NewSource(8000, tt.channels, 100, func(_, ch int) float32 { return float32(ch) })
			m := audio.NewMonoMixer(src)

			if m.Channels() != 1 || m.SampleRate() != 8000 {
				t.Fatalf("MonoMixer = %d Hz %d ch", m.SampleRate(), m.Channels())
			}

			out := drain(t, m, 64)
			if len(out) != 100 {
				t.Fatalf("got %d frames, want 100", len(out))
			}
			for i, s := range out {
				if s != tt.want {
					t.Fatalf("out[%d] = %v, want %v", i, s, tt.want)
				}
			}
		})
	}
}

func TestMonoMixer_NoChannels(t *testing.T) {
	t.Parallel()

	m := audio.NewMonoMixer(audiotest.NewSilentSource(8000, 0, 10))
	if _, err := m.ReadSamples(make([]float32, 8)); !errors.Is(err, audio.ErrNoChannels) {
		t.Errorf("ReadSamples() error = %v, want ErrNoChannels", err)
	}
	if n, err := m.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v", n, err)
	}
}

func BenchmarkMonoMixer_Stereo(b *testing.B) {
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		m := audio.NewMonoMixer(audiotest.NewSineSource(48000, 2, 48000, 440))
		for {
			if _, err := m.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
