// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package portaudio

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/drgolem/go-portaudio/portaudio"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
)

// Device plays on a PortAudio output device. Initialize is called on
// Open and Terminate on Close.
type Device struct {
	logger *slog.Logger
	index  int // -1 for the default output

	mu      sync.Mutex
	params  device.OpenParams
	stream  *portaudio.PaStream
	running bool

	// audio side
	cb       atomic.Pointer[device.Callback]
	channels int
	buf      []float32
}

// New returns a device for output index, or the default output when
// index is negative.
func New(index int, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{
		logger: logger.With("component", "device", "backend", "portaudio"),
		index:  index,
	}
}

func (d *Device) Open(p device.OpenParams) error {
	const op = "portaudio.Open"

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return audio.Errorf(audio.ErrLogic, op, "already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return audio.WrapError(audio.ErrRuntime, op, err)
	}

	info, err := d.deviceInfo()
	if err != nil {
		_ = portaudio.Terminate()
		return audio.WrapError(audio.ErrRuntime, op, err)
	}

	p, err = device.Negotiate(p, int(info.DefaultSampleRate))
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}

	d.channels = p.Spec.Channels
	d.buf = make([]float32, p.Frames*p.Spec.Channels)
	cb := p.Callback
	d.cb.Store(&cb)

	stream := &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  info.Index,
			ChannelCount: p.Spec.Channels,
			SampleFormat: portaudio.SampleFmtFloat32,
		},
		SampleRate: float64(p.Spec.Freq),
	}
	if err := stream.OpenCallback(p.Frames, d.callback); err != nil {
		d.cb.Store(nil)
		_ = portaudio.Terminate()
		return audio.WrapError(audio.ErrRuntime, op, err)
	}
	if err := stream.StartStream(); err != nil {
		d.cb.Store(nil)
		_ = stream.CloseCallback()
		_ = portaudio.Terminate()
		return audio.WrapError(audio.ErrRuntime, op, err)
	}

	d.stream = stream
	d.params = p
	d.running = true

	d.logger.Info("opened",
		"device", info.Name,
		"spec", p.Spec.String(),
		"frames", p.Frames,
		"version", portaudio.GetVersionText(),
	)
	return nil
}

func (d *Device) deviceInfo() (*portaudio.DeviceInfo, error) {
	if d.index < 0 {
		return portaudio.DefaultOutputDevice()
	}
	return portaudio.GetDeviceInfo(d.index)
}

// callback runs on PortAudio's audio thread.
func (d *Device) callback(
	_, output []byte,
	frameCount uint,
	_ *portaudio.StreamCallbackTimeInfo,
	_ portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {
	cb := d.cb.Load()
	if cb == nil {
		clear(output)
		return portaudio.Continue
	}

	frames := int(frameCount)
	n := frames * d.channels
	if cap(d.buf) < n {
		d.buf = make([]float32, n)
	}
	out := d.buf[:n]

	(*cb)(out, frames)

	copy(output, unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*4))
	return portaudio.Continue
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return nil
	}

	var errs []error
	if d.running {
		if err := d.stream.StopStream(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.stream.CloseCallback(); err != nil {
		errs = append(errs, err)
	}
	d.cb.Store(nil)
	d.stream = nil
	d.running = false

	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return audio.WrapError(audio.ErrRuntime, "portaudio.Close", errs[0])
	}
	return nil
}

func (d *Device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return audio.Errorf(audio.ErrLogic, "portaudio.Suspend", "not open")
	}
	if !d.running {
		return nil
	}
	if err := d.stream.StopStream(); err != nil {
		return audio.WrapError(audio.ErrRuntime, "portaudio.Suspend", err)
	}
	d.running = false
	return nil
}

func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return audio.Errorf(audio.ErrLogic, "portaudio.Resume", "not open")
	}
	if d.running {
		return nil
	}
	if err := d.stream.StartStream(); err != nil {
		return audio.WrapError(audio.ErrRuntime, "portaudio.Resume", err)
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
	return d.stream != nil
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

// DefaultSampleRate queries the output device, initializing PortAudio
// for the call if needed.
func (d *Device) DefaultSampleRate() int {
	if err := portaudio.Initialize(); err != nil {
		return device.DefaultSampleRate
	}
	defer func() { _ = portaudio.Terminate() }()

	info, err := d.deviceInfo()
	if err != nil || info.DefaultSampleRate <= 0 {
		return device.DefaultSampleRate
	}
	return int(info.DefaultSampleRate)
}

var _ device.Device = (*Device)(nil)
