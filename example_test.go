// SPDX-License-Identifier: EPL-2.0

package audspace_test

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/ik5/audspace"
	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/fetch"
	"github.com/ik5/audspace/formats/wav"
	"github.com/ik5/audspace/graph"
	"github.com/ik5/audspace/graph/soft"
)

// tone encodes a mono 440 Hz WAV.
func tone(sampleRate int, seconds float64) []byte {
	pcm := make([]int16, int(float64(sampleRate)*seconds))
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	var buf bytes.Buffer
	if err := wav.WriteWAV16(&buf, sampleRate, pcm); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func newManager() *audspace.Manager {
	cfg := audspace.DefaultConfig()
	cfg.Fetcher = fetch.NewMemory(map[string][]byte{
		"drip.wav": tone(8000, 0.25),
		"step.wav": tone(8000, 0.1),
	})
	cfg.NewContext = func() (graph.Context, error) {
		return soft.New(soft.WithSampleRate(8000))
	}

	m, err := audspace.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	return m
}

func ExampleManager() {
	ctx := context.Background()
	m := newManager()
	defer m.Dispose(ctx)

	if err := m.Resume(ctx); err != nil {
		fmt.Println(err)
		return
	}

	s, err := m.CreatePositionalSound(ctx, "drip", audspace.NewSourceConfig("drip.wav"))
	if err != nil {
		fmt.Println(err)
		return
	}
	s.SetPosition(3, 0, 0)
	s.Play(0)
	fmt.Println(s.State(), s.Duration())

	// Render half a second offline.
	out := m.Context().(*soft.Context).Output()
	channels, err := audio.ReadAll(audio.Limit(out, 4000), 1024)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(channels), len(channels[0]), s.State())
	// Output:
	// playing 0.25
	// 2 4000 stopped
}

func ExampleSoundPool() {
	ctx := context.Background()
	m := newManager()
	defer m.Dispose(ctx)

	pool, err := m.CreateSoundPool(ctx, "steps", audspace.NewPoolConfig("step.wav", 3))
	if err != nil {
		fmt.Println(err)
		return
	}

	for i := range 4 {
		pos := audspace.Vec3{X: float64(i)}
		v := m.PlaySoundFromPool("steps", &pos)
		fmt.Println(v == pool.Voice(i%pool.Size()), pool.Cursor())
	}
	// Output:
	// true 1
	// true 2
	// true 0
	// true 1
}

func ExampleEnvironmentPreset() {
	cave := audspace.EnvironmentPreset(audspace.EnvironmentCave)
	fmt.Println(cave.Type, cave.Reverb.Decay, cave.LowpassFrequency)
	// Output: cave 4 8000
}
