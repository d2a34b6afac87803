// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/effect"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/mixer"
)

func newTestEngine(t *testing.T, frames int) (*Engine, *device.Null) {
	t.Helper()

	cfg := config.Default()
	cfg.Backend = config.BackendNull

	dev := device.NewNull(48000)
	e := New(
		WithConfig(cfg),
		WithDevice(dev),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err := e.Open(48000, frames); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e, dev
}

func constantWAV(frames int, v float32) []byte {
	return audiotest.WAV{
		Rate:     48000,
		Channels: 2,
		Format:   audio.Float32LE,
		Samples:  audiotest.Constant(frames, 2, v),
	}.Bytes()
}

func TestEngine_EndToEnd(t *testing.T) {
	t.Parallel()

	e, dev := newTestEngine(t, 480)

	want := audio.Spec{Freq: 48000, Channels: 2, Format: audio.Float32}
	if e.Spec() != want || e.BufferFrames() != 480 {
		t.Fatalf("Spec() = %v/%d, want %v/480", e.Spec(), e.BufferFrames(), want)
	}

	sb, err := e.LoadSoundMem(constantWAV(480, 0.5))
	if err != nil {
		t.Fatalf("LoadSoundMem() error = %v", err)
	}
	v, err := e.PlaySound(sb, false, nil)
	if err != nil {
		t.Fatalf("PlaySound() error = %v", err)
	}
	if err := v.SetVolume(0.5); err != nil {
		t.Fatal(err)
	}

	out := dev.Render(480)
	for i, s := range out {
		if s != 0.25 {
			t.Fatalf("out[%d] = %v, want 0.25", i, s)
		}
	}
	if e.Clock() != 480 {
		t.Errorf("Clock() = %d, want 480", e.Clock())
	}
}

func TestEngine_Closed(t *testing.T) {
	t.Parallel()

	e := New(WithDevice(device.NewNull(0)), WithLogger(slog.New(slog.DiscardHandler)))

	if e.IsOpen() || e.MasterBus() != nil || e.Clock() != 0 {
		t.Error("new engine is not closed")
	}

	checks := map[string]error{}
	_, checks["CreateBus"] = e.CreateBus(false, nil)
	_, checks["PlaySound"] = e.PlaySound(mixer.NewSoundBuffer(), false, nil)
	_, checks["LoadSoundMem"] = e.LoadSoundMem(constantWAV(10, 0))
	_, checks["StreamSound"] = e.StreamSound("x.wav", false, nil, false)
	checks["Suspend"] = e.Suspend()
	checks["Resume"] = e.Resume()

	for name, err := range checks {
		if !errors.Is(err, audio.ErrRuntime) || !errors.Is(err, errClosed) {
			t.Errorf("%s() error = %v, want %v", name, err, errClosed)
		}
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close() on closed engine = %v", err)
	}
}

type failingDevice struct {
	*device.Null
}

var errNoHardware = errors.New("no hardware")

func (failingDevice) Open(device.OpenParams) error { return errNoHardware }

func TestEngine_OpenFailure(t *testing.T) {
	t.Parallel()

	e := New(WithDevice(failingDevice{device.NewNull(0)}), WithLogger(slog.New(slog.DiscardHandler)))

	if err := e.Open(0, 0); !errors.Is(err, errNoHardware) {
		t.Fatalf("Open() error = %v, want %v", err, errNoHardware)
	}
	if e.IsOpen() {
		t.Error("IsOpen() = true after failed Open")
	}
	if !errors.Is(e.Err(), errNoHardware) {
		t.Errorf("Err() = %v, want %v", e.Err(), errNoHardware)
	}
}

func TestEngine_OpenTwice(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 64)
	if err := e.Open(0, 0); !errors.Is(err, audio.ErrLogic) {
		t.Errorf("second Open() error = %v, want %v", err, audio.ErrLogic)
	}
}

func TestEngine_OnFinishedAndReap(t *testing.T) {
	t.Parallel()

	e, dev := newTestEngine(t, 256)

	sb, err := e.LoadSoundMem(constantWAV(100, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.PlaySound(sb, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got []uuid.UUID
	e.OnFinished.Add(func(id uuid.UUID) { got = append(got, id) })

	e.Update()
	if len(got) != 0 {
		t.Fatalf("OnFinished fired before mixing: %v", got)
	}

	dev.Pump(256)
	e.Update()
	e.Update()
	if len(got) != 1 || got[0] != v.ID() {
		t.Fatalf("OnFinished calls = %v, want [%v]", got, v.ID())
	}

	if h, err := e.Voice(v.ID()); err != nil || h != v {
		t.Errorf("Voice() = %v, %v, want the voice", h, err)
	}

	// replaying arms the notification again
	if err := v.Play(); err != nil {
		t.Fatal(err)
	}
	dev.Pump(64)
	e.Update()
	dev.Pump(256)
	e.Update()
	if len(got) != 2 {
		t.Errorf("OnFinished calls after replay = %d, want 2", len(got))
	}

	if err := e.Release(v); err != nil {
		t.Fatal(err)
	}
	dev.Pump(64)
	e.Update()

	if _, err := e.Voice(v.ID()); !errors.Is(err, audio.ErrInvalidHandle) {
		t.Errorf("Voice() after release error = %v, want %v", err, audio.ErrInvalidHandle)
	}
	if len(e.voices) != 0 {
		t.Errorf("registry holds %d voices after reap, want 0", len(e.voices))
	}
}

func TestEngine_Buses(t *testing.T) {
	t.Parallel()

	e, dev := newTestEngine(t, 128)

	if m, err := e.Bus(uuid.Nil); err != nil || m != e.MasterBus() {
		t.Errorf("Bus(Nil) = %v, %v, want master", m, err)
	}

	b, err := e.CreateBus(false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := e.Bus(b.ID()); err != nil || got != b {
		t.Errorf("Bus() = %v, %v, want %v", got, err, b)
	}
	if _, err := e.Bus(uuid.New()); !errors.Is(err, audio.ErrInvalidHandle) {
		t.Errorf("Bus(unknown) error = %v, want %v", err, audio.ErrInvalidHandle)
	}

	sb, err := e.LoadSoundMem(constantWAV(1000, 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaySound(sb, false, b); err != nil {
		t.Fatal(err)
	}

	gain := effect.NewVolume(1)
	if err := b.AddEffect(gain); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam(b, gain, effect.VolumeParamGain, effect.Float(0.5)); err != nil {
		t.Fatal(err)
	}

	out := dev.Render(128)
	if out[0] != 0.5 || out[255] != 0.5 {
		t.Errorf("bus output = %v..%v, want 0.5", out[0], out[255])
	}

	if err := e.Release(b); err != nil {
		t.Fatal(err)
	}
	dev.Pump(128)
	e.Update()
	if _, err := e.Bus(b.ID()); !errors.Is(err, audio.ErrInvalidHandle) {
		t.Errorf("Bus() after release error = %v, want %v", err, audio.ErrInvalidHandle)
	}
}

func TestEngine_Defer(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 64)

	ran := 0
	for range 3 {
		if err := e.Defer(func() { ran++ }); err != nil {
			t.Fatal(err)
		}
	}
	if ran != 0 {
		t.Fatalf("deferred work ran before Update: %d", ran)
	}
	e.Update()
	if ran != 3 {
		t.Errorf("deferred calls = %d, want 3", ran)
	}
}

func TestEngine_SuspendResume(t *testing.T) {
	t.Parallel()

	e, dev := newTestEngine(t, 64)

	if err := e.Suspend(); err != nil {
		t.Fatal(err)
	}
	if dev.Pump(64) {
		t.Error("suspended device rendered")
	}
	if err := e.Resume(); err != nil {
		t.Fatal(err)
	}
	if !dev.Pump(64) || e.Clock() != 64 {
		t.Errorf("Clock() after resume = %d, want 64", e.Clock())
	}
}
