// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM streaming primitives the soft graph decodes
// through.
//
// A Source is a pull-based stream of interleaved float32 samples in [-1, 1].
// Decoders produce Sources; a Registry maps format keys to decoders and can
// detect the container of an asset from its first SniffLen bytes:
//
//	reg := formats.Default()
//	format, src, err := reg.Open(bytes.NewReader(data))
//
// Resampler converts a Source to another rate with cubic interpolation and a
// one-pole anti-alias filter when downsampling. MonoMixer folds any channel
// count to mono. ReadAll collects a finite Source into one slice per channel,
// which is the shape graph buffers use.
//
// Reads follow the io.Reader convention: process the n samples returned
// before looking at err, and treat io.EOF as the normal end of stream.
//
//	for {
//	    n, err := src.ReadSamples(buf)
//	    consume(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
