// SPDX-License-Identifier: EPL-2.0

// Package speaker plays an audio.Source, typically the output of a soft
// device graph, on the default sound card.
//
// The underlying driver allows one device per process, so a Speaker should be
// created once and kept for the life of the program.
package speaker

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/ik5/audspace/audio"
)

type Speaker struct {
	mtx    sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	src    audio.Source
	closed bool
}

// New opens the device at the sample rate and channel count of src and
// prepares a paused player reading from it. New blocks until the device is
// ready.
func New(src audio.Source, opts ...Option) (*Speaker, error) {
	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, ErrInvalidSource
	}

	o := options{bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   src.SampleRate(),
		ChannelCount: src.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	return &Speaker{
		ctx:    ctx,
		player: ctx.NewPlayer(newReader(src)),
		src:    src,
	}, nil
}

// Play starts or continues playback.
func (s *Speaker) Play() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.ctx.Resume(); err != nil {
		return fmt.Errorf("resuming audio device: %w", err)
	}
	s.player.Play()
	return nil
}

func (s *Speaker) Pause() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.closed {
		s.player.Pause()
	}
}

func (s *Speaker) IsPlaying() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return !s.closed && s.player.IsPlaying()
}

// Err reports a device or source error that stopped playback.
func (s *Speaker) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.player.Err(); err != nil {
		return err
	}
	return s.ctx.Err()
}

// Close stops playback, closes the source and suspends the device.
func (s *Speaker) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.closed = true

	if err := s.player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	if err := s.src.Close(); err != nil {
		return fmt.Errorf("closing source: %w", err)
	}
	if err := s.ctx.Suspend(); err != nil {
		return fmt.Errorf("suspending audio device: %w", err)
	}
	return nil
}
