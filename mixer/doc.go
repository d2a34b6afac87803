// SPDX-License-Identifier: EPL-2.0

// Package mixer implements the mixing graph: voices that play sound
// buffers or streamed decoders, and buses that sum their children through
// effect chains into a single master bus.
//
// # Threads
//
// A Graph is driven by one audio goroutine calling Mix. Every other
// goroutine changes the graph by pushing commands, which Mix applies at
// the start of the next block. Getters such as Voice.State or Node.Clock
// read atomic copies and may lag one block behind.
//
//	g, _ := mixer.NewGraph(spec, 512)
//	sb := mixer.NewSoundBuffer()
//	_ = sb.Load("hit.wav", spec)
//	v, _ := g.PlayBuffer(sb, nil, false)
//	_ = v.FadeTo(v.ParentClock()+48000, 0)
//
//	out := make([]float32, 512*spec.Channels)
//	g.Mix(out, 512) // on the audio goroutine
//
// # Clocks
//
// Each node counts the frames it has produced. Pause, unpause and fade
// points are expressed in the clock of the node's parent, so a paused bus
// stops the clocks of everything under it. ClockNow resolves to the
// parent clock at the moment the command is applied.
//
// # Streaming
//
// Voices bound to a decoder own a prefetch goroutine that decodes into a
// lock-free ring. The audio goroutine never touches the decoder; an empty
// ring plays as silence.
package mixer
