// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/graph"
)

// DecodeAudioData detects the container of data, decodes it and resamples it
// to the context rate. It does not hold the context lock, so decoding never
// stalls rendering.
func (c *Context) DecodeAudioData(ctx context.Context, data []byte) (graph.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, src, err := c.opts.registry.Open(bytes.NewReader(data))
	if errors.Is(err, audio.ErrUnknownFormat) {
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("decoding audio data: %w", err)
	}
	defer src.Close()

	var stream audio.Source = src
	if float64(src.SampleRate()) != c.sampleRate {
		stream = audio.NewResampler(src, int(c.sampleRate))
	}

	planar, err := audio.ReadAll(stream, 4096)
	if err != nil {
		return nil, fmt.Errorf("reading %s samples: %w", format, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := NewBuffer(planar, c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("decoded %s: %w", format, err)
	}

	c.logger.Debug("decoded audio data",
		"format", format,
		"channels", buf.NumberOfChannels(),
		"frames", buf.Length(),
		"source_rate", src.SampleRate())

	return buf, nil
}
