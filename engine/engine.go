// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ik5/audmix/action"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/command"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/decoder"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/effect"
	"github.com/ik5/audmix/mixer"
)

var errClosed = errors.New("engine closed")

// Engine owns an output device and the graph it plays. Handles to voices
// and buses are kept by ID so callers can hold plain uuids across
// goroutines.
//
// Engine methods are safe for concurrent use. Update is meant to be
// called regularly from one control goroutine.
type Engine struct {
	cfg    config.Config
	logger *slog.Logger

	// OnFinished fires from Update once each time a voice reaches
	// mixer.Finished.
	OnFinished action.Action[uuid.UUID]

	deferred *command.Queue
	graph    atomic.Pointer[mixer.Graph]

	mu       sync.Mutex
	fixedDev device.Device
	dev      device.Device
	err      error
	voices   map[uuid.UUID]*mixer.Voice
	buses    map[uuid.UUID]*mixer.Bus
	notified map[uuid.UUID]bool
}

// New returns a closed engine.
func New(opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		cfg:      o.cfg,
		logger:   o.logger,
		deferred: command.New(16, o.logger),
		fixedDev: o.dev,
		voices:   make(map[uuid.UUID]*mixer.Voice),
		buses:    make(map[uuid.UUID]*mixer.Bus),
		notified: make(map[uuid.UUID]bool),
	}
}

// Open starts the device and builds the graph. A zero sampleRate or
// bufferFrames falls back to the configuration, then to the device
// default. On failure the engine stays closed and Err keeps the error.
func (e *Engine) Open(sampleRate, bufferFrames int) error {
	const op = "engine.Open"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dev != nil {
		return audio.Errorf(audio.ErrLogic, op, "already open")
	}

	err := e.open(sampleRate, bufferFrames)
	e.err = err
	if err != nil {
		e.logger.Error("open failed", "err", err)
	}
	return err
}

func (e *Engine) open(sampleRate, bufferFrames int) error {
	if sampleRate == 0 {
		sampleRate = e.cfg.SampleRate
	}
	if bufferFrames == 0 {
		bufferFrames = e.cfg.BufferFrames
	}

	dev := e.fixedDev
	if dev == nil {
		var err error
		if dev, err = newDevice(e.cfg, e.logger); err != nil {
			return err
		}
	}

	err := dev.Open(device.OpenParams{
		Spec:     audio.Spec{Freq: sampleRate, Channels: e.cfg.Channels, Format: audio.Float32},
		Frames:   bufferFrames,
		Callback: e.render,
	})
	if err != nil {
		return err
	}

	g, err := mixer.NewGraph(dev.Spec(), dev.BufferFrames(),
		mixer.WithLogger(e.logger),
		mixer.WithPrefetchFrames(e.cfg.PrefetchFrames),
	)
	if err != nil {
		_ = dev.Close()
		return err
	}

	e.graph.Store(g)
	e.dev = dev
	e.logger.Info("opened", "spec", g.Spec().String(), "frames", g.BufferFrames(), "backend", e.cfg.Backend)
	return nil
}

// render is the device callback.
func (e *Engine) render(out []float32, frames int) {
	g := e.graph.Load()
	if g == nil {
		clear(out)
		return
	}
	g.Mix(out, frames)
}

// Close stops the device and releases every node. Handles obtained while
// open become invalid.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dev == nil {
		return nil
	}

	err := e.dev.Close()
	if g := e.graph.Swap(nil); g != nil {
		g.Close()
	}
	e.dev = nil
	clear(e.voices)
	clear(e.buses)
	clear(e.notified)

	e.logger.Info("closed")
	if err != nil {
		return audio.WrapError(audio.ErrRuntime, "engine.Close", err)
	}
	return nil
}

func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev != nil
}

// Err returns the error of the last Open, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Engine) Config() config.Config { return e.cfg }

func (e *Engine) Device() device.Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev
}

func (e *Engine) Suspend() error {
	dev, err := e.device("engine.Suspend")
	if err != nil {
		return err
	}
	return dev.Suspend()
}

func (e *Engine) Resume() error {
	dev, err := e.device("engine.Resume")
	if err != nil {
		return err
	}
	return dev.Resume()
}

func (e *Engine) device(op string) (device.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dev == nil {
		return nil, audio.WrapError(audio.ErrRuntime, op, errClosed)
	}
	return e.dev, nil
}

// Graph returns the open graph, or ErrRuntime when closed.
func (e *Engine) Graph() (*mixer.Graph, error) {
	g := e.graph.Load()
	if g == nil {
		return nil, audio.WrapError(audio.ErrRuntime, "engine.Graph", errClosed)
	}
	return g, nil
}

// Spec is the mixing spec, zero when closed.
func (e *Engine) Spec() audio.Spec {
	if g := e.graph.Load(); g != nil {
		return g.Spec()
	}
	return audio.Spec{}
}

func (e *Engine) BufferFrames() int {
	if g := e.graph.Load(); g != nil {
		return g.BufferFrames()
	}
	return 0
}

// Clock is the number of frames mixed since Open.
func (e *Engine) Clock() uint64 {
	if g := e.graph.Load(); g != nil {
		return g.Clock()
	}
	return 0
}

func (e *Engine) MasterBus() *mixer.Bus {
	if g := e.graph.Load(); g != nil {
		return g.MasterBus()
	}
	return nil
}

func (e *Engine) decoderOptions() []decoder.Option {
	return []decoder.Option{
		decoder.WithResampleQuality(e.cfg.ResampleQuality),
		decoder.WithLogger(e.logger),
	}
}

// LoadSound decodes the file at path into a buffer in the mixing spec.
func (e *Engine) LoadSound(path string) (*mixer.SoundBuffer, error) {
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	sb := mixer.NewSoundBuffer()
	if err := sb.Load(path, g.Spec(), e.decoderOptions()...); err != nil {
		return nil, err
	}
	return sb, nil
}

// LoadSoundMem is LoadSound for an encoded file held in data.
func (e *Engine) LoadSoundMem(data []byte) (*mixer.SoundBuffer, error) {
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	sb := mixer.NewSoundBuffer()
	if err := sb.LoadMem(data, g.Spec(), e.decoderOptions()...); err != nil {
		return nil, err
	}
	return sb, nil
}

// PlaySound starts a voice on sound under bus, or master when bus is nil.
func (e *Engine) PlaySound(sound *mixer.SoundBuffer, paused bool, bus *mixer.Bus) (*mixer.Voice, error) {
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	v, err := g.PlayBuffer(sound, bus, paused)
	if err != nil {
		return nil, err
	}
	e.track(v)
	return v, nil
}

// StreamSound plays the file at path without loading it whole.
func (e *Engine) StreamSound(path string, paused bool, bus *mixer.Bus, looping bool) (*mixer.Voice, error) {
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	dec, err := decoder.Open(path, g.Spec(), e.decoderOptions()...)
	if err != nil {
		return nil, err
	}
	v, err := g.PlayStream(dec, bus, paused, looping)
	if err != nil {
		_ = dec.Close()
		return nil, err
	}
	e.track(v)
	return v, nil
}

// CreateBus adds a bus under parent, or master when parent is nil.
func (e *Engine) CreateBus(paused bool, parent *mixer.Bus) (*mixer.Bus, error) {
	g, err := e.Graph()
	if err != nil {
		return nil, err
	}
	b, err := g.NewBus(parent, paused)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.buses[b.ID()] = b
	e.mu.Unlock()
	return b, nil
}

func (e *Engine) track(v *mixer.Voice) {
	e.mu.Lock()
	e.voices[v.ID()] = v
	e.mu.Unlock()
}

// Voice looks up a voice created by PlaySound or StreamSound.
func (e *Engine) Voice(id uuid.UUID) (*mixer.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.voices[id]
	if !ok || v.Released() {
		return nil, audio.Errorf(audio.ErrInvalidHandle, "engine.Voice", "no voice %v", id)
	}
	return v, nil
}

// Bus looks up a bus created by CreateBus. The nil uuid names master.
func (e *Engine) Bus(id uuid.UUID) (*mixer.Bus, error) {
	if id == uuid.Nil {
		if m := e.MasterBus(); m != nil {
			return m, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.buses[id]
	if !ok || b.Released() {
		return nil, audio.Errorf(audio.ErrInvalidHandle, "engine.Bus", "no bus %v", id)
	}
	return b, nil
}

// Release removes n from the graph. The handle is dropped on the next
// Update after the removal has been mixed.
func (e *Engine) Release(n mixer.Node) error {
	g, err := e.Graph()
	if err != nil {
		return err
	}
	return g.Release(n)
}

// SetParam forwards a parameter to an effect on n.
func (e *Engine) SetParam(n mixer.Node, fx effect.Effect, index int, v effect.Param) error {
	if _, err := e.Graph(); err != nil {
		return err
	}
	return n.SetParam(fx, index, v)
}

// Defer queues fn for the next Update. fn must not call Defer.
func (e *Engine) Defer(fn func()) error {
	return e.deferred.PushFunc(fn)
}

// Update runs deferred work, fires OnFinished for voices that finished
// since the last call and drops handles of removed nodes.
func (e *Engine) Update() {
	e.deferred.Process()

	var finished []uuid.UUID

	e.mu.Lock()
	for id, v := range e.voices {
		if v.Removed() {
			delete(e.voices, id)
			delete(e.notified, id)
			continue
		}
		done := v.State() == mixer.Finished
		switch {
		case done && !e.notified[id]:
			e.notified[id] = true
			finished = append(finished, id)
		case !done && e.notified[id]:
			delete(e.notified, id)
		}
	}
	for id, b := range e.buses {
		if b.Removed() {
			delete(e.buses, id)
		}
	}
	e.mu.Unlock()

	for _, id := range finished {
		e.logger.Debug("voice finished", "voice", id)
		e.OnFinished.Invoke(id)
	}
}
