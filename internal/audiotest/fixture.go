// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"testing"

	"github.com/ik5/audspace/formats/wav"
	"github.com/ik5/audspace/utils"
)

// WAV encodes frames of wave as a 16-bit PCM WAV file.
func WAV(tb testing.TB, sampleRate, channels, frames int, wave Waveform) []byte {
	tb.Helper()

	samples := make([]int16, 0, frames*channels)
	for f := range frames {
		for c := range channels {
			samples = append(samples, utils.Float32ToInt16(wave(f, c)))
		}
	}

	var buf bytes.Buffer
	if err := wav.WritePCM16(&buf, sampleRate, channels, samples); err != nil {
		tb.Fatalf("WritePCM16() error = %v", err)
	}

	return buf.Bytes()
}

// ToneWAV is a mono 440 Hz tone at half scale lasting seconds.
func ToneWAV(tb testing.TB, sampleRate int, seconds float64) []byte {
	tb.Helper()
	return WAV(tb, sampleRate, 1, int(float64(sampleRate)*seconds), Sine(sampleRate, 440, 0.5))
}
