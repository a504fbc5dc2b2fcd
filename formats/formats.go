// SPDX-License-Identifier: EPL-2.0

// Package formats wires the bundled decoders into an audio.Registry.
package formats

import (
	"github.com/ik5/audspace/audio"
	"github.com/ik5/audspace/formats/aiff"
	"github.com/ik5/audspace/formats/mp3"
	"github.com/ik5/audspace/formats/vorbis"
	"github.com/ik5/audspace/formats/wav"
)

// Default returns a registry holding every bundled decoder. MP3 is registered
// last because its frame-sync check is the loosest.
func Default() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("mp3", mp3.Decoder{})

	return r
}
