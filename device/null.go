// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"

	"github.com/ik5/audmix/audio"
)

// Null is a device without hardware. Nothing happens until Pump or
// Render is called, which run the callback on the calling goroutine.
type Null struct {
	mu      sync.Mutex
	params  OpenParams
	open    bool
	running bool
	buf     []float32
	rate    int
}

// NewNull returns a Null device whose default rate is rate, or
// DefaultSampleRate when rate is zero.
func NewNull(rate int) *Null {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Null{rate: rate}
}

func (d *Null) Open(p OpenParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return audio.Errorf(audio.ErrLogic, "device.Null.Open", "already open")
	}

	p, err := Negotiate(p, d.rate)
	if err != nil {
		return err
	}

	d.params = p
	d.buf = make([]float32, p.Frames*p.Spec.Channels)
	d.open = true
	d.running = true
	return nil
}

func (d *Null) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.open = false
	d.running = false
	d.params = OpenParams{}
	return nil
}

func (d *Null) Suspend() error { return d.setRunning(false) }
func (d *Null) Resume() error  { return d.setRunning(true) }

func (d *Null) setRunning(running bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return audio.Errorf(audio.ErrLogic, "device.Null", "not open")
	}
	d.running = running
	return nil
}

func (d *Null) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Null) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Null) Spec() audio.Spec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.Spec
}

func (d *Null) BufferFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.Frames
}

func (d *Null) DefaultSampleRate() int { return d.rate }

// Pump runs the callback for frames frames and discards the output. It
// reports false when the device is closed or suspended.
func (d *Null) Pump(frames int) bool {
	return d.Render(frames) != nil
}

// Render runs the callback for frames frames and returns the output. The
// slice is reused by the next call. It returns nil when the device is
// closed or suspended.
func (d *Null) Render(frames int) []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open || !d.running || frames <= 0 {
		return nil
	}

	n := frames * d.params.Spec.Channels
	if cap(d.buf) < n {
		d.buf = make([]float32, n)
	}
	out := d.buf[:n]
	d.params.Callback(out, frames)
	return out
}
