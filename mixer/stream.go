// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drgolem/ringbuffer"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/decoder"
)

// prefetchInterval is how long the producer sleeps when the ring is full
// or it waits for the consumer.
const prefetchInterval = 5 * time.Millisecond

// stream decodes ahead of a voice on its own goroutine. The producer owns
// the decoder and writes float32 frames into an SPSC ring; the audio
// goroutine only reads the ring.
//
// A seek bumps seekGen. The producer repositions the decoder and
// publishes the generation in seekDone, then waits until the consumer has
// dropped the stale ring contents and published flushGen.
type stream struct {
	dec    *decoder.Decoder
	ring   *ringbuffer.RingBuffer
	spec   audio.Spec
	bpf    int
	frames int64 // total length, -1 when unknown
	chunk  int
	logger *slog.Logger

	looping   atomic.Bool
	loopStart atomic.Uint64
	target    atomic.Int64
	seekGen   atomic.Uint64
	seekDone  atomic.Uint64
	flushGen  atomic.Uint64
	eof       atomic.Bool

	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	raw []byte // consumer scratch
}

func newStream(dec *decoder.Decoder, prefetchFrames, blockFrames int, logger *slog.Logger) *stream {
	spec := dec.Spec()
	bpf := spec.BytesPerFrame()

	s := &stream{
		dec:    dec,
		ring:   ringbuffer.New(uint64(prefetchFrames * bpf)),
		spec:   spec,
		bpf:    bpf,
		frames: dec.Frames(),
		chunk:  max(blockFrames, 1024),
		logger: logger.With("stream", dec.Format()),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		raw:    make([]byte, blockFrames*bpf),
	}
	go s.run()
	return s
}

func (s *stream) run() {
	defer close(s.done)
	defer func() {
		if err := s.dec.Close(); err != nil {
			s.logger.Warn("closing decoder", "err", err)
		}
	}()

	ticker := time.NewTicker(prefetchInterval)
	defer ticker.Stop()

	buf := make([]byte, s.chunk*s.bpf)
	var gen uint64

	wait := func() bool {
		select {
		case <-s.quit:
			return false
		case <-ticker.C:
			return true
		}
	}

	for {
		select {
		case <-s.quit:
			return
		default:
		}

		if g := s.seekGen.Load(); g != gen {
			gen = g
			if err := s.dec.Seek(s.target.Load()); err != nil {
				s.logger.Warn("seek failed", "frame", s.target.Load(), "err", err)
			}
			s.eof.Store(false)
			s.seekDone.Store(g)
		}

		if s.flushGen.Load() != gen {
			if !wait() {
				return
			}
			continue
		}

		if s.eof.Load() {
			if s.looping.Load() {
				s.rewind()
				continue
			}
			if !wait() {
				return
			}
			continue
		}

		space := int(s.ring.AvailableWrite()) / s.bpf
		if space == 0 {
			if !wait() {
				return
			}
			continue
		}

		n, err := s.dec.ReadFrames(buf, int64(min(space, s.chunk)))
		if n > 0 {
			// never more than AvailableWrite, so the write cannot fail
			_, _ = s.ring.Write(buf[:int(n)*s.bpf])
		}

		switch {
		case errors.Is(err, io.EOF):
			if s.looping.Load() {
				s.rewind()
				continue
			}
			s.eof.Store(true)
		case err != nil:
			s.logger.Error("decode failed", "err", err)
			s.eof.Store(true)
		}
	}
}

func (s *stream) rewind() {
	if err := s.dec.Seek(int64(s.loopStart.Load())); err != nil {
		s.logger.Warn("loop rewind failed", "err", err)
		s.eof.Store(true)
		s.looping.Store(false)
		return
	}
	s.eof.Store(false)
}

// read copies up to frames frames into dst and returns how many it got.
// An empty ring or a seek in flight reads as zero frames.
func (s *stream) read(dst []float32, frames int) int {
	if g := s.seekGen.Load(); s.flushGen.Load() != g {
		if s.seekDone.Load() != g {
			return 0
		}
		_ = s.ring.Consume(s.ring.AvailableRead())
		s.flushGen.Store(g)
	}

	want := frames * s.bpf
	if cap(s.raw) < want {
		s.logger.Warn("growing stream buffer", "bytes", want)
		s.raw = make([]byte, want)
	}

	n, err := s.ring.Read(s.raw[:want])
	if err != nil || n == 0 {
		return 0
	}
	n -= n % s.bpf

	samples := n / s.spec.Format.Bytes()
	if err := audio.ConvertToFloat32(s.raw[:n], s.spec.Format, dst[:samples]); err != nil {
		return 0
	}
	return n / s.bpf
}

// seek runs on the consumer side.
func (s *stream) seek(frame int64) {
	s.target.Store(frame)
	s.seekGen.Add(1)
}

// ended reports whether the producer hit the end and the ring is drained.
func (s *stream) ended() bool {
	return s.eof.Load() && s.flushGen.Load() == s.seekGen.Load() && s.ring.AvailableRead() == 0
}

// close tells the producer to stop without waiting for it.
func (s *stream) close() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// wait blocks until the producer has exited.
func (s *stream) wait() {
	<-s.done
}
