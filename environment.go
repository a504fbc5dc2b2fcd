// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"math/rand/v2"

	"github.com/ik5/audspace/graph"
)

// Environment is input -> [lowpass] -> [highpass] -> [reverb] -> output.
type Environment struct {
	cfg      EnvironmentConfig
	input    graph.GainNode
	output   graph.GainNode
	lowpass  graph.BiquadFilterNode
	highpass graph.BiquadFilterNode
	reverb   *Reverb
}

func NewEnvironment(ctx graph.Context, cfg EnvironmentConfig, rng *rand.Rand) (*Environment, error) {
	e := &Environment{
		cfg:    cfg.clone(),
		input:  ctx.CreateGain(),
		output: ctx.CreateGain(),
	}

	var last graph.Node = e.input
	if cfg.LowpassFrequency > 0 {
		e.lowpass = ctx.CreateBiquadFilter()
		e.lowpass.SetType(graph.Lowpass)
		e.lowpass.Frequency().SetValue(cfg.LowpassFrequency)
		last.Connect(e.lowpass)
		last = e.lowpass
	}
	if cfg.HighpassFrequency > 0 {
		e.highpass = ctx.CreateBiquadFilter()
		e.highpass.SetType(graph.Highpass)
		e.highpass.Frequency().SetValue(cfg.HighpassFrequency)
		last.Connect(e.highpass)
		last = e.highpass
	}
	if cfg.Reverb != nil {
		r, err := NewReverb(ctx, *cfg.Reverb, rng)
		if err != nil {
			e.Dispose()
			return nil, err
		}
		e.reverb = r
		last.Connect(r.Input())
		last = r.Output()
	}
	last.Connect(e.output)

	return e, nil
}

func (e *Environment) Config() EnvironmentConfig { return e.cfg.clone() }
func (e *Environment) Input() graph.Node         { return e.input }
func (e *Environment) Output() graph.Node        { return e.output }

// Reverb returns the reverb stage, or nil when the environment has none.
func (e *Environment) Reverb() *Reverb { return e.reverb }

// Dispose disconnects the chain. It is safe to call more than once.
func (e *Environment) Dispose() {
	if e.input != nil {
		e.input.Disconnect()
	}
	if e.lowpass != nil {
		e.lowpass.Disconnect()
	}
	if e.highpass != nil {
		e.highpass.Disconnect()
	}
	if e.reverb != nil {
		e.reverb.Dispose()
	}
	if e.output != nil {
		e.output.Disconnect()
	}

	e.input, e.output, e.lowpass, e.highpass, e.reverb = nil, nil, nil, nil, nil
}
