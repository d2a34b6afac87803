// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/effect"
)

// ClockNow stands for the current parent clock in PauseAt and UnpauseAt.
const ClockNow = math.MaxUint64

// clockUnset marks a pause or unpause clock that is not scheduled.
const clockUnset = math.MaxUint64

// Node is a vertex of the mixing graph, either a *Voice or a *Bus.
type Node interface {
	ID() uuid.UUID
	Parent() *Bus
	Clock() uint64
	IsPaused() bool
	Released() bool
	AddEffect(e effect.Effect) error
	RemoveEffect(e effect.Effect) error
	SetParam(e effect.Effect, index int, v effect.Param) error

	core() *node
}

// filler produces the node's own signal before fades and effects.
type filler interface {
	fill(dst []float32, frames int)
}

// node is the state Voice and Bus share. Fields without atomics belong to
// the audio goroutine; control goroutines only touch them through
// commands.
type node struct {
	g   *Graph
	id  uuid.UUID
	src filler

	// audio side
	parent         *Bus
	effects        []effect.Effect
	volume         *effect.Volume
	paused         bool
	pauseClock     uint64
	unpauseClock   uint64
	releaseOnPause bool
	clock          uint64
	parentClock    uint64
	fade           fader
	released       bool
	scratch        []float32

	// mirrors for control goroutines
	clockView       atomic.Uint64
	parentClockView atomic.Uint64
	pausedView      atomic.Bool
	releasedView    atomic.Bool
	removedView     atomic.Bool
	fadeView        atomic.Uint32

	// control side, guarded by g.ctlMu
	ctlParent   *Bus
	ctlReleased bool
}

func (n *node) init(g *Graph, src filler, paused bool) {
	n.g = g
	n.id = uuid.New()
	n.src = src
	n.paused = paused
	n.pausedView.Store(paused)
	n.pauseClock = clockUnset
	n.unpauseClock = clockUnset
	n.fade = newFader()
	n.fadeView.Store(math.Float32bits(1))
	n.scratch = make([]float32, g.frames*g.spec.Channels)

	n.volume = effect.NewVolume(1)
	n.volume.SetSpec(g.spec)
	// a fresh effect cannot be attached elsewhere
	_ = effect.Attach(n.volume, n)
	n.effects = []effect.Effect{n.volume}
}

func (n *node) core() *node { return n }

func (n *node) ID() uuid.UUID { return n.id }

// Clock is the number of frames the node has produced.
func (n *node) Clock() uint64 { return n.clockView.Load() }

// ParentClock is the clock of the parent bus at the start of the next
// block. Pause, unpause and fade clocks are expressed in it.
func (n *node) ParentClock() uint64 { return n.parentClockView.Load() }

func (n *node) IsPaused() bool { return n.pausedView.Load() }

// Released reports whether the node was released. Its parent drops it
// in the next mix cycle.
func (n *node) Released() bool { return n.releasedView.Load() }

// Removed reports whether a released node has left the graph.
func (n *node) Removed() bool { return n.removedView.Load() }

// FadeValue is the gain of the fade envelope at the end of the last block.
func (n *node) FadeValue() float32 { return math.Float32frombits(n.fadeView.Load()) }

// Parent is the bus the node feeds, nil for master.
func (n *node) Parent() *Bus {
	n.g.ctlMu.Lock()
	defer n.g.ctlMu.Unlock()

	return n.ctlParent
}

// Pause stops output at the start of the next block.
func (n *node) Pause() error { return n.PauseAt(ClockNow, false) }

// Unpause resumes output at the start of the next block.
func (n *node) Unpause() error { return n.UnpauseAt(ClockNow) }

// PauseAt stops output at a parent clock. With release set the node is
// released once the pause is reached.
func (n *node) PauseAt(clock uint64, release bool) error {
	return n.g.Push(&setPause{n: n, clock: clock, release: release})
}

// UnpauseAt resumes output at a parent clock.
func (n *node) UnpauseAt(clock uint64) error {
	return n.g.Push(&setUnpause{n: n, clock: clock})
}

// Volume is the gain of the node's built-in volume stage.
func (n *node) Volume() float32 { return n.volume.Gain() }

func (n *node) SetVolume(gain float32) error { return n.volume.SetGain(gain) }

// AddEffect appends e to the node's chain. e must not belong to another
// node.
func (n *node) AddEffect(e effect.Effect) error {
	if err := effect.Attach(e, n); err != nil {
		return err
	}
	e.SetSpec(n.g.spec)
	return n.g.Push(&addEffect{n: n, e: e})
}

// RemoveEffect takes e out of the chain. The effect is detached once the
// removal has been applied.
func (n *node) RemoveEffect(e effect.Effect) error {
	if e == effect.Effect(n.volume) {
		return audio.Errorf(audio.ErrInvalidArg, "mixer.RemoveEffect", "built-in volume cannot be removed")
	}
	return n.g.Push(&removeEffect{n: n, e: e})
}

// SetParam changes a parameter of an effect of this node at the start
// of the next block.
func (n *node) SetParam(e effect.Effect, index int, v effect.Param) error {
	return n.g.Push(&setParam{n: n, e: e, index: index, v: v})
}

// SendParam implements effect.Sender.
func (n *node) SendParam(e effect.Effect, index int, v effect.Param) error {
	return n.SetParam(e, index, v)
}

// AddFadePoint sets the envelope gain at a parent clock.
func (n *node) AddFadePoint(clock uint64, value float32) error {
	return n.g.Push(&addFadePoint{n: n, p: FadePoint{Clock: clock, Value: value}})
}

// RemoveFadePoints drops envelope points with clocks in [begin, end).
func (n *node) RemoveFadePoints(begin, end uint64) error {
	return n.g.Push(&removeFadePoints{n: n, begin: begin, end: end})
}

// FadeTo ramps the envelope from its current gain to value, reached at
// the parent clock.
func (n *node) FadeTo(clock uint64, value float32) error {
	return n.g.Push(&fadeTo{n: n, clock: clock, value: value})
}

// release flags the node for removal. Audio goroutine only.
func (n *node) release() {
	if n.released {
		return
	}
	n.released = true
	n.releasedView.Store(true)
	n.g.removals = true
}

// finalize runs once the node has left the graph. A bus takes its
// remaining children with it.
func (n *node) finalize() {
	switch src := n.src.(type) {
	case *Voice:
		src.unbind()
	case *Bus:
		for _, child := range src.children {
			child.core().finalize()
		}
		src.children = nil
	}
	for _, e := range n.effects {
		effect.Detach(e)
	}
	n.effects = nil
	n.parent = nil
	n.removedView.Store(true)
}

func (n *node) setPause(pause bool, clock uint64, release bool) {
	// a clock already behind the parent takes effect at the next block
	if clock == ClockNow || clock < n.parentClock {
		clock = n.parentClock
	}
	if pause {
		n.pauseClock = clock
		n.releaseOnPause = release
		return
	}
	n.unpauseClock = clock
}

func (n *node) removeEffect(e effect.Effect) {
	i := slices.Index(n.effects, e)
	if i < 0 {
		return
	}
	n.effects = slices.Delete(n.effects, i, i+1)
	effect.Detach(e)
}

// ensure grows the node buffers when the device asks for more frames than
// the graph was opened with.
func (n *node) ensure(samples int) {
	if cap(n.scratch) < samples {
		n.g.logger.Warn("growing node buffer", "node", n.id, "samples", samples)
		n.scratch = make([]float32, samples)
	}
	n.scratch = n.scratch[:samples]
}

// rel converts a scheduled parent clock into a frame offset in the
// current block, -1 when unscheduled or already behind.
func (n *node) rel(clock uint64) int64 {
	if clock == clockUnset || clock < n.parentClock {
		return -1
	}
	d := clock - n.parentClock
	if d > math.MaxInt32 {
		return math.MaxInt32
	}
	return int64(d)
}

// read renders one block of frames into out: zero, source signal gated by
// the pause clocks, fade envelope, effect chain, then the clock advances.
func (n *node) read(out []float32, frames int) {
	if frames <= 0 {
		return
	}
	ch := n.g.spec.Channels
	out = out[:frames*ch]
	clear(out)
	n.ensure(len(out))

	if !n.released {
		n.gate(out, frames, ch)
	}

	n.fade.apply(out, ch, n.parentClock)
	n.fadeView.Store(math.Float32bits(n.fade.value))

	if res := effect.Run(n.effects, out, n.scratch); &res[0] != &out[0] {
		copy(out, res)
	}

	n.clock += uint64(frames)
	n.clockView.Store(n.clock)
	n.pausedView.Store(n.paused)
}

func (n *node) gate(out []float32, frames, ch int) {
	pause, unpause := n.rel(n.pauseClock), n.rel(n.unpauseClock)
	last := int64(frames)

	for i := int64(0); i < last; {
		if n.paused {
			if unpause < 0 || unpause >= last {
				break
			}
			i = max(i, unpause)
			// a pause scheduled before this unpause is stale
			if pause >= 0 && pause < unpause {
				pause = -1
				n.pauseClock = clockUnset
			}
			unpause = -1
			n.unpauseClock = clockUnset
			n.paused = false
			continue
		}

		end := last
		pauseHere := pause >= 0 && pause < last
		if pauseHere {
			end = max(pause, i)
		}
		if end > i {
			n.src.fill(out[i*int64(ch):end*int64(ch)], int(end-i))
		}
		i = end

		if pauseHere {
			if unpause >= 0 && unpause < pause {
				unpause = -1
				n.unpauseClock = clockUnset
			}
			pause = -1
			n.pauseClock = clockUnset
			n.paused = true
			if n.releaseOnPause {
				n.release()
				break
			}
		}
	}

	// clocks inside this block were consumed or are redundant
	end := n.parentClock + uint64(frames)
	if n.pauseClock != clockUnset && n.pauseClock < end {
		n.pauseClock = clockUnset
	}
	if n.unpauseClock != clockUnset && n.unpauseClock < end {
		n.unpauseClock = clockUnset
	}
}

func (n *node) setParentClock(clock uint64) {
	n.parentClock = clock
	n.parentClockView.Store(clock)
}
