// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Source is a pull-based stream of interleaved float32 PCM.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Sniffer is implemented by decoders that can recognise their container from the
// first bytes of an asset.
type Sniffer interface {
	Sniff(header []byte) bool
}

// SniffLen is the number of leading bytes Detect needs to recognise every
// registered container.
const SniffLen = 12

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder
	order  []string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

// Register adds or replaces the decoder for format. Detection order follows the
// order in which formats were first registered.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.codecs[format]; !ok {
		r.order = append(r.order, format)
	}
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats lists the registered format keys in registration order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return append([]string(nil), r.order...)
}

// Detect returns the first registered decoder whose Sniff accepts header.
func (r *Registry) Detect(header []byte) (string, Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, format := range r.order {
		s, ok := r.codecs[format].(Sniffer)
		if ok && s.Sniff(header) {
			return format, r.codecs[format], true
		}
	}

	return "", nil, false
}

// Open detects the container of rd from its first bytes and decodes it.
// Seekable readers are rewound and handed to the decoder directly.
func (r *Registry) Open(rd io.Reader) (string, Source, error) {
	var (
		header []byte
		body   io.Reader
	)

	if rs, ok := rd.(io.ReadSeeker); ok {
		header = make([]byte, SniffLen)
		n, err := io.ReadFull(rs, header)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("reading header: %w", err)
		}
		header = header[:n]
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return "", nil, fmt.Errorf("rewinding input: %w", err)
		}
		body = rs
	} else {
		br := bufio.NewReader(rd)
		h, err := br.Peek(SniffLen)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", nil, fmt.Errorf("reading header: %w", err)
		}
		header = h
		body = br
	}

	format, dec, ok := r.Detect(header)
	if !ok {
		return "", nil, ErrUnknownFormat
	}

	src, err := dec.Decode(body)
	if err != nil {
		return format, nil, fmt.Errorf("decoding %s: %w", format, err)
	}

	return format, src, nil
}
