// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ik5/audspace/fetch"
)

// Fetcher serves assets from memory and counts calls per URL. When Gate is
// set every Fetch blocks until it is closed or ctx ends.
type Fetcher struct {
	Assets map[string][]byte
	Gate   chan struct{}

	mtx   sync.Mutex
	calls map[string]int
}

func NewFetcher(assets map[string][]byte) *Fetcher {
	return &Fetcher{
		Assets: assets,
		calls:  make(map[string]int),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mtx.Lock()
	f.calls[url]++
	gate := f.Gate
	data, ok := f.Assets[url]
	f.mtx.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", fetch.ErrNotFound, url)
	}

	return data, nil
}

// SetGate replaces Gate for later fetches. Fetches already blocked keep
// waiting on the old gate.
func (f *Fetcher) SetGate(gate chan struct{}) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.Gate = gate
}

// Calls returns how many times url was fetched.
func (f *Fetcher) Calls(url string) int {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return f.calls[url]
}
