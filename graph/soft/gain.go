// SPDX-License-Identifier: EPL-2.0

package soft

import "github.com/ik5/audspace/graph"

// Gain multiplies its input by an a-rate gain parameter.
type Gain struct {
	node
	gain   *Param
	values [Quantum]float32
}

var _ graph.GainNode = (*Gain)(nil)

func (c *Context) CreateGain() graph.GainNode {
	g := &Gain{gain: newParam(c, 1, -3.4e38, 3.4e38)}
	g.init(c, kindGain, g)
	return g
}

func (g *Gain) Gain() graph.Param { return g.gain }

func (g *Gain) process(in, out *block) {
	g.gain.fill(&g.values, g.ctx.frame)
	for c := range out {
		for i := range out[c] {
			out[c][i] = in[c][i] * g.values[i]
		}
	}
}
