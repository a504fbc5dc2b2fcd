// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audspace/utils"
)

// ResampleToMono16 resamples src to targetRate, folds it to mono and collects
// every sample as 16-bit PCM.
//
// The pipeline is Resampler -> MonoMixer -> Float32ToInt16. src must end with
// io.EOF; wrap endless sources such as a rendering graph with Limit first.
//
// Example:
//
//	preview, _, err := audio.ResampleToMono16(audio.Limit(ctx, frames), 16000, 4096)
func ResampleToMono16(src Source, targetRate int, bufferSize int) ([]int16, int, error) {
	var stream Source = src
	if src.SampleRate() != targetRate {
		stream = NewResampler(src, targetRate)
	}
	mono := NewMonoMixer(stream)

	pcm16 := make([]int16, 0, targetRate)
	buf := make([]float32, bufferSize)

	for {
		n, err := mono.ReadSamples(buf)
		for i := range n {
			pcm16 = append(pcm16, utils.Float32ToInt16(buf[i]))
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, targetRate, fmt.Errorf("resampling to mono: %w", err)
		}
	}

	return pcm16, targetRate, nil
}
