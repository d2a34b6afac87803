// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC files with github.com/mewkiz/flac.
//
// All bit depths the format allows up to 32 bits are scaled into [-1, 1).
// Sources implement audio.Lengther and audio.FrameSeeker; seeking lands on
// the block that holds the frame and then skips inside it, so positioning
// is sample accurate.
package flac
