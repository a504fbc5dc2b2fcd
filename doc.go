// SPDX-License-Identifier: EPL-2.0

// Package audspace is a spatial audio engine for games and 3D scenes.
//
// A Manager owns a device graph (see package graph) and three kinds of sound:
//
//   - positional sounds (Source), panned and attenuated by their distance and
//     direction from the listener
//   - ambient sounds (AmbientSource), played without spatialization and able
//     to fade in and out
//   - sound pools (SoundPool), a fixed ring of positional voices for rapid
//     one-shot effects such as footsteps or gunfire
//
// Every sound feeds the active acoustic environment (reverb plus optional
// low-pass and high-pass filters) before the master gain.
//
// # Formats
//
// Assets are fetched through a Fetcher and decoded by the device context.
// The default soft context understands:
//   - WAV (PCM 16-bit) via formats/wav
//   - AIFF (PCM 16-bit) via formats/aiff
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//
// # Quick Start
//
//	m, _ := audspace.NewManager(audspace.DefaultConfig())
//	defer m.Dispose(context.Background())
//
//	_ = m.Resume(ctx)
//	_ = m.SetEnvironmentType(audspace.EnvironmentCave)
//
//	cfg := audspace.NewSourceConfig("sfx/drip.wav")
//	cfg.Loop = true
//	s, _ := m.CreatePositionalSound(ctx, "drip", cfg)
//	s.SetPosition(5, 0, 0)
//	s.Play(0)
//
//	// every frame
//	m.SyncListener(camera)
//
// # Rendering offline
//
// With the default soft context the mixed output can be pulled directly:
//
//	out := m.Context().(*soft.Context).Output()
//	pcm, _, _ := audio.ResampleToMono16(audio.Limit(out, 48000), 16000, 4096)
//
// or played on a sound card through package speaker.
package audspace
