// SPDX-License-Identifier: EPL-2.0

package audspace

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ik5/audspace/graph"
)

// BufferCache holds decoded buffers by URL. Concurrent loads of the same URL
// share one fetch and decode.
type BufferCache struct {
	mtx     sync.RWMutex
	buffers map[string]graph.Buffer
	flights map[string]*flight
	group   singleflight.Group
}

// flight is a shared load and the number of callers still waiting on it.
// It is cancelled once the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func NewBufferCache() *BufferCache {
	return &BufferCache{
		buffers: make(map[string]graph.Buffer),
		flights: make(map[string]*flight),
	}
}

func (c *BufferCache) Get(url string) (graph.Buffer, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	b, ok := c.buffers[url]
	return b, ok
}

func (c *BufferCache) Len() int {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return len(c.buffers)
}

// Clear drops every buffer. Loads already in flight still complete and
// repopulate their entry.
func (c *BufferCache) Clear() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	clear(c.buffers)
}

// Load returns the cached buffer for url, or runs load once on behalf of every
// concurrent caller. A caller whose ctx ends stops waiting. The shared load
// keeps running while other callers wait and is cancelled when none are left,
// so the next Load for url starts afresh.
func (c *BufferCache) Load(
	ctx context.Context, url string, load func(context.Context) (graph.Buffer, error),
) (graph.Buffer, error) {
	if b, ok := c.Get(url); ok {
		return b, nil
	}

	c.mtx.Lock()
	if b, ok := c.buffers[url]; ok {
		c.mtx.Unlock()
		return b, nil
	}

	f, ok := c.flights[url]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[url] = f
	}
	f.waiters++

	// flights and group change together under mtx, so a url in flights always
	// has its call registered in group.
	ch := c.group.DoChan(url, func() (any, error) {
		b, err := load(f.ctx)

		c.mtx.Lock()
		defer c.mtx.Unlock()

		if err == nil {
			c.buffers[url] = b
		}
		c.forget(url, f)

		return b, err
	})
	c.mtx.Unlock()

	select {
	case <-ctx.Done():
		c.leave(url, f)
		return nil, ctx.Err()
	case res := <-ch:
		c.leave(url, f)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(graph.Buffer), nil
	}
}

// leave drops one waiter from f, cancelling it when it was the last.
func (c *BufferCache) leave(url string, f *flight) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	c.forget(url, f)
}

// forget unregisters f if it is still the flight for url. mtx must be held.
func (c *BufferCache) forget(url string, f *flight) {
	if c.flights[url] == f {
		delete(c.flights, url)
		c.group.Forget(url)
	}
}
