// SPDX-License-Identifier: EPL-2.0

// Package oto is a device backend on ebitengine/oto.
//
// oto allows a single context per process, so the first Open fixes the
// rate and channel count for the life of the program. Later opens must
// ask for the same spec.
package oto

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	otov3 "github.com/ebitengine/oto/v3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
)

var (
	ctxMu   sync.Mutex
	ctx     *otov3.Context
	ctxSpec audio.Spec
)

func sharedContext(spec audio.Spec, frames int) (*otov3.Context, error) {
	const op = "oto.Open"

	ctxMu.Lock()
	defer ctxMu.Unlock()

	if ctx != nil {
		if spec != ctxSpec {
			return nil, audio.Errorf(audio.ErrUnsupported, op, "context already running as %v", ctxSpec)
		}
		return ctx, nil
	}

	c, ready, err := otov3.NewContext(&otov3.NewContextOptions{
		SampleRate:   spec.Freq,
		ChannelCount: spec.Channels,
		Format:       otov3.FormatFloat32LE,
		BufferSize:   time.Duration(frames) * time.Second / time.Duration(spec.Freq),
	})
	if err != nil {
		return nil, audio.WrapError(audio.ErrRuntime, op, err)
	}
	<-ready

	ctx = c
	ctxSpec = spec
	return ctx, nil
}

// Device plays through the process-wide oto context.
type Device struct {
	logger *slog.Logger

	mu      sync.Mutex
	params  device.OpenParams
	ctx     *otov3.Context
	player  *otov3.Player
	running bool

	// audio side
	r   atomic.Pointer[renderer]
	buf []float32
}

type renderer struct {
	cb       device.Callback
	channels int
}

func New(logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{logger: logger.With("component", "device", "backend", "oto")}
}

func (d *Device) Open(p device.OpenParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		return audio.Errorf(audio.ErrLogic, "oto.Open", "already open")
	}

	p, err := device.Negotiate(p, device.DefaultSampleRate)
	if err != nil {
		return err
	}

	c, err := sharedContext(p.Spec, p.Frames)
	if err != nil {
		return err
	}
	if err := c.Resume(); err != nil {
		return audio.WrapError(audio.ErrRuntime, "oto.Open", err)
	}

	d.params = p
	d.ctx = c
	d.buf = make([]float32, p.Frames*p.Spec.Channels)
	d.r.Store(&renderer{cb: p.Callback, channels: p.Spec.Channels})

	d.player = c.NewPlayer(d)
	d.player.SetBufferSize(p.Frames * p.Spec.BytesPerFrame())
	d.player.Play()
	d.running = true

	d.logger.Info("opened", "spec", p.Spec.String(), "frames", p.Frames)
	return nil
}

// Read is called by oto's mixing goroutine. It renders whole frames
// only; oto keeps asking for the remainder.
func (d *Device) Read(p []byte) (int, error) {
	r := d.r.Load()
	if r == nil {
		clear(p)
		return len(p), nil
	}

	ch := r.channels
	frames := len(p) / (4 * ch)
	if frames == 0 {
		return 0, nil
	}
	n := frames * ch
	if cap(d.buf) < n {
		d.logger.Warn("growing device buffer", "frames", frames)
		d.buf = make([]float32, n)
	}
	out := d.buf[:n]

	r.cb(out, frames)

	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*4))
	return n * 4, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}
	d.r.Store(nil)
	err := d.player.Close()
	d.player = nil
	d.running = false
	if err != nil {
		return audio.WrapError(audio.ErrRuntime, "oto.Close", err)
	}
	return nil
}

// Suspend pauses the whole oto context, so every Device stops.
func (d *Device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return audio.Errorf(audio.ErrLogic, "oto.Suspend", "not open")
	}
	if err := d.ctx.Suspend(); err != nil {
		return audio.WrapError(audio.ErrRuntime, "oto.Suspend", err)
	}
	d.running = false
	return nil
}

func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return audio.Errorf(audio.ErrLogic, "oto.Resume", "not open")
	}
	if err := d.ctx.Resume(); err != nil {
		return audio.WrapError(audio.ErrRuntime, "oto.Resume", err)
	}
	d.running = true
	return nil
}

func (d *Device) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.player != nil
}

func (d *Device) Spec() audio.Spec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.Spec
}

func (d *Device) BufferFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.Frames
}

// DefaultSampleRate is the rate of a running context, or 48kHz.
func (d *Device) DefaultSampleRate() int {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if ctx != nil {
		return ctxSpec.Freq
	}
	return device.DefaultSampleRate
}

var _ device.Device = (*Device)(nil)
