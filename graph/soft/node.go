// SPDX-License-Identifier: EPL-2.0

package soft

import "github.com/ik5/audspace/graph"

const (
	kindDestination  = "destination"
	kindGain         = "gain"
	kindPanner       = "panner"
	kindBiquad       = "biquad"
	kindConvolver    = "convolver"
	kindBufferSource = "buffer-source"
)

// processor turns the summed input of a quantum into the node output.
type processor interface {
	process(in, out *block)
}

// node holds the connections and per-quantum output shared by every node type.
type node struct {
	ctx  *Context
	kind string
	proc processor

	ins  []*node
	outs []*node

	in, out    block
	renderedAt int64
	rendering  bool
}

func (n *node) init(c *Context, kind string, p processor) {
	n.ctx = c
	n.kind = kind
	n.proc = p
}

func (n *node) base() *node { return n }

type baser interface{ base() *node }

// pull renders n for quantum q once and returns its output. A node reached
// again while rendering, through a cycle, yields its previous output.
func (n *node) pull(q int64) *block {
	if n.renderedAt == q || n.rendering {
		return &n.out
	}
	n.rendering = true

	n.in.clear()
	for _, up := range n.ins {
		n.in.add(up.pull(q))
	}
	n.proc.process(&n.in, &n.out)

	n.renderedAt = q
	n.rendering = false
	return &n.out
}

// Connect routes the output of n into dst. Nodes from another context or
// device are ignored.
func (n *node) Connect(dst graph.Node) {
	b, ok := dst.(baser)
	if !ok || b.base().ctx != n.ctx {
		n.ctx.logger.Warn("ignoring connection to a foreign node", "from", n.kind)
		return
	}
	to := b.base()

	n.ctx.mtx.Lock()
	defer n.ctx.mtx.Unlock()

	for _, o := range n.outs {
		if o == to {
			return
		}
	}
	n.outs = append(n.outs, to)
	to.ins = append(to.ins, n)
}

func (n *node) Disconnect() {
	n.ctx.mtx.Lock()
	defer n.ctx.mtx.Unlock()

	for _, o := range n.outs {
		for i, in := range o.ins {
			if in == n {
				o.ins = append(o.ins[:i], o.ins[i+1:]...)
				break
			}
		}
	}
	n.outs = nil
}

// Destination sums everything connected to it into the context output.
type Destination struct {
	node
}

func (*Destination) process(in, out *block) { *out = *in }
