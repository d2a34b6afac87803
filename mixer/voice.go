// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/decoder"
)

// State is the playback state of a voice.
type State int32

const (
	Unbound State = iota
	BoundBuffer
	BoundStream
	Playing
	Paused
	Stopped
	Finished
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundBuffer:
		return "bound-buffer"
	case BoundStream:
		return "bound-stream"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type binding int32

const (
	bindNone binding = iota
	bindBuffer
	bindStream
)

// Voice plays a SoundBuffer or a decoded stream into its parent bus.
type Voice struct {
	node

	// audio side
	kind      binding
	sound     *SoundBuffer
	stream    *stream
	cursor    uint64
	looping   bool
	loopStart uint64
	started   bool
	stopped   bool
	finished  bool

	// mirrors for control goroutines
	kindView     atomic.Int32
	startedView  atomic.Bool
	stoppedView  atomic.Bool
	finishedView atomic.Bool
	loopingView  atomic.Bool
	positionView atomic.Uint64
}

func newVoice(g *Graph, paused bool) *Voice {
	v := &Voice{}
	v.node.init(g, v, paused)
	v.started = !paused
	v.startedView.Store(v.started)
	return v
}

// State reports where the voice is in its life cycle.
func (v *Voice) State() State {
	kind := binding(v.kindView.Load())
	switch {
	case kind == bindNone:
		return Unbound
	case v.finishedView.Load():
		return Finished
	case v.stoppedView.Load():
		return Stopped
	case !v.startedView.Load() && v.IsPaused():
		if kind == bindStream {
			return BoundStream
		}
		return BoundBuffer
	case v.IsPaused():
		return Paused
	}
	return Playing
}

// Position is the next frame the voice plays.
func (v *Voice) Position() uint64 { return v.positionView.Load() }

func (v *Voice) Looping() bool { return v.loopingView.Load() }

// BindBuffer makes sb the voice's source. The buffer must be at the graph
// rate and channel count; its sample format is converted on the fly.
func (v *Voice) BindBuffer(sb *SoundBuffer) error {
	const op = "mixer.Voice.BindBuffer"

	if sb == nil {
		return audio.Errorf(audio.ErrInvalidArg, op, "nil sound buffer")
	}
	if snap := sb.Snapshot(); snap != nil && !v.g.compatible(snap.Spec) {
		return audio.Errorf(audio.ErrInvalidArg, op, "buffer %v does not match graph %v", snap.Spec, v.g.spec)
	}
	return v.g.push(&bind{v: v, sound: sb})
}

// BindStream hands dec to a prefetch goroutine that decodes ahead of the
// voice. The voice owns dec from here on. dec must decode to the graph
// spec.
func (v *Voice) BindStream(dec *decoder.Decoder) error {
	const op = "mixer.Voice.BindStream"

	if dec == nil {
		return audio.Errorf(audio.ErrInvalidArg, op, "nil decoder")
	}
	if dec.Spec() != v.g.spec {
		return audio.Errorf(audio.ErrInvalidArg, op, "decoder %v does not match graph %v", dec.Spec(), v.g.spec)
	}

	s := newStream(dec, v.g.opts.prefetchFrames, v.g.frames, v.g.logger)
	if err := v.g.push(&bind{v: v, stream: s}); err != nil {
		s.close()
		return err
	}
	return nil
}

// Play starts or resumes playback. A stopped or finished voice starts
// over from the beginning.
func (v *Voice) Play() error { return v.g.push(&play{v: v}) }

// Stop silences the voice and rewinds it.
func (v *Voice) Stop() error { return v.g.push(&stop{v: v}) }

// Seek moves playback to frame.
func (v *Voice) Seek(frame uint64) error { return v.g.push(&seek{v: v, frame: frame}) }

func (v *Voice) SetLooping(looping bool) error {
	return v.g.push(&setLooping{v: v, looping: looping})
}

// SetLoopStart sets the frame playback wraps to when looping.
func (v *Voice) SetLoopStart(frame uint64) error {
	return v.g.push(&setLoopStart{v: v, frame: frame})
}

// Release removes the voice from the graph.
func (v *Voice) Release() error { return v.g.releaseNode(v) }

func (v *Voice) doBind(sb *SoundBuffer, s *stream) {
	v.unbind()
	switch {
	case sb != nil:
		v.kind, v.sound = bindBuffer, sb
	case s != nil:
		v.kind, v.stream = bindStream, s
		s.looping.Store(v.looping)
		s.loopStart.Store(v.loopStart)
	}
	v.kindView.Store(int32(v.kind))
	v.setFinished(false)
	v.setCursor(0)
}

// unbind drops the source. A stream's prefetcher is told to stop; it
// closes its decoder on its own goroutine.
func (v *Voice) unbind() {
	if v.stream != nil {
		v.stream.close()
	}
	v.kind, v.sound, v.stream = bindNone, nil, nil
	v.kindView.Store(int32(bindNone))
}

func (v *Voice) doPlay() {
	if v.stopped || v.finished {
		v.doSeek(0)
	}
	v.setStopped(false)
	v.setFinished(false)
	v.started = true
	v.startedView.Store(true)
	v.setPause(false, ClockNow, false)
}

func (v *Voice) doStop() {
	v.setStopped(true)
	v.paused = true
	v.pausedView.Store(true)
	v.pauseClock, v.unpauseClock = clockUnset, clockUnset
	v.doSeek(0)
}

func (v *Voice) doSeek(frame uint64) {
	switch v.kind {
	case bindBuffer:
		if snap := v.sound.Snapshot(); snap != nil {
			frame = min(frame, uint64(snap.Frames()))
		}
	case bindStream:
		v.stream.seek(int64(frame))
	}
	v.setFinished(false)
	v.setCursor(frame)
}

func (v *Voice) doSetLooping(looping bool) {
	v.looping = looping
	v.loopingView.Store(looping)
	if v.stream != nil {
		v.stream.looping.Store(looping)
	}
}

func (v *Voice) doSetLoopStart(frame uint64) {
	v.loopStart = frame
	if v.stream != nil {
		v.stream.loopStart.Store(frame)
	}
}

func (v *Voice) setCursor(frame uint64) {
	v.cursor = frame
	v.positionView.Store(frame)
}

func (v *Voice) setStopped(stopped bool) {
	v.stopped = stopped
	v.stoppedView.Store(stopped)
}

func (v *Voice) setFinished(finished bool) {
	v.finished = finished
	v.finishedView.Store(finished)
}

func (v *Voice) fill(dst []float32, frames int) {
	if v.finished || v.stopped {
		return
	}
	if !v.started {
		v.started = true
		v.startedView.Store(true)
	}

	switch v.kind {
	case bindBuffer:
		v.fillBuffer(dst, frames)
	case bindStream:
		v.fillStream(dst, frames)
	}
	v.positionView.Store(v.cursor)
}

func (v *Voice) fillBuffer(dst []float32, frames int) {
	snap := v.sound.Snapshot()
	if snap == nil || !v.g.compatible(snap.Spec) {
		return
	}

	ch := v.g.spec.Channels
	bpf := uint64(snap.Spec.BytesPerFrame())
	total := uint64(len(snap.Data)) / bpf

	for f := 0; f < frames; {
		if v.cursor >= total {
			if !v.looping || total == 0 {
				v.setFinished(true)
				return
			}
			v.cursor = v.loopStart
			if v.cursor >= total {
				v.cursor = 0
			}
			continue
		}

		n := min(uint64(frames-f), total-v.cursor)
		src := snap.Data[v.cursor*bpf : (v.cursor+n)*bpf]
		if err := audio.ConvertToFloat32(src, snap.Spec.Format, dst[f*ch:(f+int(n))*ch]); err != nil {
			v.g.logger.Error("buffer conversion failed", "voice", v.id, "err", err)
			v.setFinished(true)
			return
		}
		v.cursor += n
		f += int(n)
	}
}

func (v *Voice) fillStream(dst []float32, frames int) {
	n := v.stream.read(dst, frames)
	v.cursor += uint64(n)

	if total := v.stream.frames; v.looping && total > 0 && v.cursor >= uint64(total) {
		start := v.loopStart
		if start >= uint64(total) {
			start = 0
		}
		v.cursor = start + (v.cursor-uint64(total))%(uint64(total)-start)
	}

	if n < frames && v.stream.ended() {
		v.setFinished(true)
	}
}
