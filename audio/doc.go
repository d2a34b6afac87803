// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives shared by the decoders, the
// mixer and the device backends.
//
// # Sources
//
// Every decoder and processor implements Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. Sources may also implement
// FrameSeeker, Lengther and MarkerSource.
//
// Sources chain into pipelines:
//
//	src, _ := wav.Decoder{}.Decode(f)
//	stereo := audio.NewChannelMapper(src, 2)
//	out := audio.Resample(stereo, 48000, audio.QualityHigh)
//
// # Sample formats
//
// SampleFormat is a packed flag word (bit depth, float, big endian, signed).
// Convert, ConvertToFloat32 and ConvertFromFloat32 move samples between
// encodings; integers scale by 2^(bits-1) and round on the way back.
//
// # Specs and time
//
// Spec bundles rate, channel count and format. ConvertTime translates
// positions between microseconds, milliseconds, frames and bytes.
//
// # Errors
//
// Errors carry one of the category sentinels (ErrFileOpen, ErrInvalidArg,
// ErrLogic, ...) and match it with errors.Is:
//
//	if errors.Is(err, audio.ErrFileOpen) {
//	    // missing file
//	}
//
// ReadSamples returns io.EOF when the stream is finished.
package audio
