// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1 Layer III audio with
// github.com/hajimehoshi/go-mp3.
//
// The decoder always produces stereo at the stream's sample rate; fold it
// with audio.NewMonoMixer when mono is needed:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	mono := audio.NewMonoMixer(src)
//
// When the input implements io.Seeker the source also implements
// audio.Lengther and audio.FrameSeeker.
package mp3
