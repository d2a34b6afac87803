// SPDX-License-Identifier: EPL-2.0

// Package decoder opens encoded audio and produces PCM in a requested spec.
//
// The input format is detected from its leading bytes, with the file
// extension as a fallback, and decoded by one of the format packages. The
// decoded float stream is channel mapped, resampled and finally encoded to
// the target sample format:
//
//	target := audio.Spec{Freq: 48000, Channels: 2, Format: audio.Float32}
//	d, err := decoder.Open("music.ogg", target, decoder.WithResampleQuality(audio.QualityHigh))
//	if err != nil {
//	    return err
//	}
//	defer d.Close()
//
//	buf := make([]byte, 1024*target.BytesPerFrame())
//	n, err := d.Read(buf)
package decoder
