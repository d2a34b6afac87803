// SPDX-License-Identifier: EPL-2.0

// Package effect holds the per-node DSP stages of the mixer and the
// built-in Volume, Pan and Delay effects.
//
// Effects work on interleaved float32 blocks. A chain runs in insertion
// order through Run, which ping-pongs between the node buffer and a
// scratch buffer and skips the copy when an effect declines to process.
//
// Parameter changes made from control goroutines are deferred to the
// audio goroutine through the node the effect is attached to:
//
//	vol := effect.NewVolume(1)
//	voice.AddEffect(vol)
//	vol.SetGain(0.5) // applied at the start of the next mix cycle
package effect
