// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"sync"

	"github.com/ik5/audspace/graph"
)

// SoundPool plays one-shot sounds on a fixed ring of voices. When every voice
// is busy the oldest one is cut off and reused.
type SoundPool struct {
	mtx    sync.Mutex
	cfg    PoolConfig
	voices []*Source
	cursor int
}

func newSoundPool(ctx graph.Context, buf graph.Buffer, cfg PoolConfig, out graph.Node, hrtf bool) (*SoundPool, error) {
	if cfg.PoolSize <= 0 {
		return nil, ErrInvalidPoolSize
	}

	p := &SoundPool{cfg: cfg, voices: make([]*Source, cfg.PoolSize)}
	for i := range p.voices {
		p.voices[i] = newSource(ctx, buf, cfg.SourceConfig, out, hrtf)
	}
	return p, nil
}

func (p *SoundPool) Config() PoolConfig { return p.cfg }
func (p *SoundPool) Size() int          { return len(p.voices) }

// Voice returns voice i of the ring.
func (p *SoundPool) Voice(i int) *Source { return p.voices[i] }

// Cursor returns the index of the voice the next Play will use.
func (p *SoundPool) Cursor() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.cursor
}

// Play starts the voice at the cursor, at pos when pos is not nil, and
// returns it.
func (p *SoundPool) Play(pos *Vec3) *Source {
	p.mtx.Lock()
	v := p.voices[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.voices)
	p.mtx.Unlock()

	v.Stop()
	if pos != nil {
		v.SetPosition(pos.X, pos.Y, pos.Z)
	}
	v.Play(0)

	return v
}

func (p *SoundPool) StopAll() {
	for _, v := range p.voices {
		v.Stop()
	}
}

func (p *SoundPool) route(out graph.Node) {
	for _, v := range p.voices {
		v.route(out)
	}
}

func (p *SoundPool) Dispose() {
	for _, v := range p.voices {
		v.Dispose()
	}
}
