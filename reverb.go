// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ik5/audspace/graph"
)

// SynthesizeImpulseResponse builds a stereo impulse response of
// sampleRate*decay frames: silence for preDelay seconds, then uniform noise
// under an exponential envelope reaching e^-3 at decay seconds. Each channel
// draws its own noise so the tail decorrelates. A nil rng uses the global
// generator.
func SynthesizeImpulseResponse(sampleRate, decay, preDelay float64, rng *rand.Rand) ([2][]float32, error) {
	var ir [2][]float32
	if decay <= 0 || math.IsNaN(decay) {
		return ir, ErrInvalidReverb
	}

	length := int(sampleRate * decay)
	if length < 1 {
		return ir, fmt.Errorf("%w: %g s at %g Hz is shorter than one frame", ErrInvalidReverb, decay, sampleRate)
	}
	pre := min(max(int(preDelay*sampleRate), 0), length)

	next := rand.Float64
	if rng != nil {
		next = rng.Float64
	}

	for ch := range ir {
		data := make([]float32, length)
		for i := pre; i < length; i++ {
			t := float64(i-pre) / sampleRate
			data[i] = float32((2*next() - 1) * math.Exp(-3*t/decay))
		}
		ir[ch] = data
	}

	return ir, nil
}

// Reverb is input -> {convolver -> wet, dry} -> output.
type Reverb struct {
	cfg       ReverbConfig
	input     graph.GainNode
	output    graph.GainNode
	wet       graph.GainNode
	dry       graph.GainNode
	convolver graph.ConvolverNode
}

func NewReverb(ctx graph.Context, cfg ReverbConfig, rng *rand.Rand) (*Reverb, error) {
	sr := ctx.SampleRate()
	ir, err := SynthesizeImpulseResponse(sr, cfg.Decay, cfg.PreDelay, rng)
	if err != nil {
		return nil, err
	}

	buf, err := ctx.CreateBuffer(len(ir), len(ir[0]), sr)
	if err != nil {
		return nil, fmt.Errorf("creating impulse response: %w", err)
	}
	for ch, data := range ir {
		buf.CopyToChannel(data, ch)
	}

	r := &Reverb{
		cfg:       cfg,
		input:     ctx.CreateGain(),
		output:    ctx.CreateGain(),
		wet:       ctx.CreateGain(),
		dry:       ctx.CreateGain(),
		convolver: ctx.CreateConvolver(),
	}
	r.convolver.SetBuffer(buf)

	r.input.Connect(r.convolver)
	r.convolver.Connect(r.wet)
	r.wet.Connect(r.output)
	r.input.Connect(r.dry)
	r.dry.Connect(r.output)

	r.SetWetDry(cfg.Wet, cfg.Dry)

	return r, nil
}

func (r *Reverb) Config() ReverbConfig { return r.cfg }
func (r *Reverb) Input() graph.Node    { return r.input }
func (r *Reverb) Output() graph.Node   { return r.output }

func (r *Reverb) SetWetDry(wet, dry float64) {
	r.cfg.Wet, r.cfg.Dry = wet, dry
	r.wet.Gain().SetValue(wet)
	r.dry.Gain().SetValue(dry)
}

// Dispose disconnects every node of the reverb.
func (r *Reverb) Dispose() {
	for _, n := range []graph.Node{r.input, r.convolver, r.wet, r.dry, r.output} {
		n.Disconnect()
	}
}
