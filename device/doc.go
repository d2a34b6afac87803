// SPDX-License-Identifier: EPL-2.0

// Package device defines the audio output contract the engine drives,
// and the Null device used for tests and offline rendering.
//
// Hardware backends live in the oto and portaudio subpackages. The
// portaudio backend needs cgo and is only built with the portaudio tag.
package device
