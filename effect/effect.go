// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"math"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
)

// Effect is one processing stage of a voice or bus.
//
// Process transforms an interleaved block from in to out; the slices have
// equal length and never alias. Returning false means the effect did
// nothing and out holds garbage; the caller keeps using in.
//
// ReceiveParam, Process, SetSpec and Reset run on the audio goroutine
// only. Control goroutines change parameters through the Set methods of
// each effect, which route the change through the owning node's command
// queue once the effect is attached.
type Effect interface {
	Process(in, out []float32) bool
	ReceiveParam(index int, v Param) error
	SetSpec(spec audio.Spec)
	Reset()

	base() *Base
}

// Sender delivers a parameter change to the goroutine that processes e.
type Sender interface {
	SendParam(e Effect, index int, v Param) error
}

// Base tracks which node an effect is attached to. Every Effect embeds it.
type Base struct {
	sender atomic.Pointer[senderBox]
}

type senderBox struct{ s Sender }

func (b *Base) base() *Base { return b }

// Attached reports whether the effect belongs to a node.
func (b *Base) Attached() bool { return b.sender.Load() != nil }

// send applies v right away while the effect is detached, since nothing
// else can be running it, and defers it through the node otherwise.
func (b *Base) send(e Effect, index int, v Param) error {
	if box := b.sender.Load(); box != nil {
		return box.s.SendParam(e, index, v)
	}
	return e.ReceiveParam(index, v)
}

// Attach binds e to the node behind s. An effect belongs to at most one
// node; attaching it twice fails with audio.ErrInvalidArg.
func Attach(e Effect, s Sender) error {
	if !e.base().sender.CompareAndSwap(nil, &senderBox{s: s}) {
		return audio.Errorf(audio.ErrInvalidArg, "effect.Attach", "%T is already attached", e)
	}
	return nil
}

// Detach releases e from its node so it can be attached elsewhere.
func Detach(e Effect) {
	e.base().sender.Store(nil)
}

// Run passes buf through chain in order. scratch must be at least as long
// as buf. The returned slice, either buf or scratch[:len(buf)], holds the
// result.
func Run(chain []Effect, buf, scratch []float32) []float32 {
	in, out := buf, scratch[:len(buf)]
	for _, e := range chain {
		if e.Process(in, out) {
			in, out = out, in
		}
	}
	return in
}

// atomicFloat holds a float32 parameter readable from any goroutine.
type atomicFloat struct{ bits atomic.Uint32 }

func (a *atomicFloat) Load() float32   { return math.Float32frombits(a.bits.Load()) }
func (a *atomicFloat) Store(v float32) { a.bits.Store(math.Float32bits(v)) }

func unknownParam(op string, index int) error {
	return audio.Errorf(audio.ErrInvalidArg, op, "unknown parameter %d", index)
}

func wrongKind(op string, index int, want Kind, got Param) error {
	return audio.Errorf(audio.ErrInvalidArg, op, "parameter %d wants %v, got %v", index, want, got)
}
