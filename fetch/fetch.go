// SPDX-License-Identifier: EPL-2.0

// Package fetch supplies encoded asset bytes by URL from a file system,
// HTTP or memory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Fetcher returns the raw bytes stored at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Func adapts a function to Fetcher.
type Func func(ctx context.Context, url string) ([]byte, error)

func (f Func) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// FS reads assets from a file system. A leading "file://" or "/" is stripped
// so paths resolve relative to the fs root.
type FS struct {
	FS fs.FS
}

func (f FS) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(rawURL, "file://")
	name = strings.TrimPrefix(name, "/")

	data, err := fs.ReadFile(f.FS, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	return data, nil
}

// HTTP fetches assets with an http.Client. A nil Client uses http.DefaultClient.
type HTTP struct {
	Client *http.Client
}

func (h HTTP) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}

	return data, nil
}

// Memory serves assets from a map. It is safe for concurrent use.
type Memory struct {
	mtx    sync.RWMutex
	assets map[string][]byte
}

func NewMemory(assets map[string][]byte) *Memory {
	m := &Memory{assets: make(map[string][]byte, len(assets))}
	for k, v := range assets {
		m.assets[k] = v
	}
	return m
}

// Put stores data under url, replacing any previous asset.
func (m *Memory) Put(url string, data []byte) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.assets[url] = data
}

func (m *Memory) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	data, ok := m.assets[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}

	return data, nil
}

// Mux routes a URL to the Fetcher registered for its scheme. URLs without
// a scheme use the "" entry.
type Mux map[string]Fetcher

// NewMux maps file and bare paths to fsys and http(s) to client.
func NewMux(fsys fs.FS, client *http.Client) Mux {
	web := HTTP{Client: client}
	local := FS{FS: fsys}

	return Mux{
		"":      local,
		"file":  local,
		"http":  web,
		"https": web,
	}
}

func (m Mux) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", rawURL, err)
	}

	f, ok := m[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	return f.Fetch(ctx, rawURL)
}
