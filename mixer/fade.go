// SPDX-License-Identifier: EPL-2.0

package mixer

import "slices"

// FadePoint is a gain target at a clock of the node's parent.
type FadePoint struct {
	Clock uint64
	Value float32
}

// fader is a piecewise linear gain envelope. Between two points the gain
// is interpolated; before the first point it is the last applied gain;
// after the last point it holds that point's value.
type fader struct {
	points []FadePoint
	value  float32
}

func newFader() fader {
	return fader{value: 1}
}

// add inserts p keeping points sorted by clock. A point on an existing
// clock replaces its value.
func (f *fader) add(p FadePoint) {
	i, found := slices.BinarySearchFunc(f.points, p.Clock, func(e FadePoint, c uint64) int {
		switch {
		case e.Clock < c:
			return -1
		case e.Clock > c:
			return 1
		}
		return 0
	})
	if found {
		f.points[i].Value = p.Value
		return
	}
	f.points = slices.Insert(f.points, i, p)
}

// remove drops points with clocks in [begin, end).
func (f *fader) remove(begin, end uint64) {
	f.points = slices.DeleteFunc(f.points, func(p FadePoint) bool {
		return p.Clock >= begin && p.Clock < end
	})
}

// fadeTo ramps from the current gain at now to value at clock.
func (f *fader) fadeTo(now, clock uint64, value float32) {
	f.remove(now, clock)
	f.add(FadePoint{Clock: now, Value: f.value})
	f.add(FadePoint{Clock: clock, Value: value})
}

// last returns the index of the last point at or before clock, or -1.
func (f *fader) last(clock uint64) int {
	idx := -1
	for i, p := range f.points {
		if p.Clock > clock {
			break
		}
		idx = i
	}
	return idx
}

// apply scales interleaved buf, whose first frame sits at clock, and
// drops points the block has passed except the last one.
func (f *fader) apply(buf []float32, channels int, clock uint64) {
	if len(f.points) == 0 && f.value == 1 {
		return
	}

	frames := len(buf) / channels
	idx := -1
	for i := 0; i < frames; {
		now := clock + uint64(i)
		idx = f.last(now)

		if idx >= 0 && idx+1 < len(f.points) {
			p0, p1 := f.points[idx], f.points[idx+1]
			span := float32(p1.Clock - p0.Clock)
			delta := p1.Value - p0.Value
			end := i + int(min(p1.Clock-now, uint64(frames-i)))
			for ; i < end; i++ {
				g := p0.Value + delta*float32(clock+uint64(i)-p0.Clock)/span
				scale(buf[i*channels:(i+1)*channels], g)
				f.value = g
			}
			continue
		}

		end := frames
		if idx+1 < len(f.points) {
			end = i + int(min(f.points[idx+1].Clock-now, uint64(frames-i)))
		}
		if idx >= 0 {
			f.value = f.points[idx].Value
		}
		if f.value != 1 {
			scale(buf[i*channels:end*channels], f.value)
		}
		i = end
	}

	if idx > 0 {
		f.points = slices.Delete(f.points, 0, idx)
	}
}

func scale(buf []float32, g float32) {
	for i := range buf {
		buf[i] *= g
	}
}
