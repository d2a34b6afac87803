// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"slices"
	"testing"
)

func TestFader_AddKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newFader()
	for _, c := range []uint64{50, 10, 30, 10} {
		f.add(FadePoint{Clock: c, Value: float32(c)})
	}
	f.add(FadePoint{Clock: 30, Value: -1})

	want := []FadePoint{{10, 10}, {30, -1}, {50, 50}}
	if !slices.Equal(f.points, want) {
		t.Errorf("points = %v, want %v", f.points, want)
	}

	f.remove(10, 50)
	if !slices.Equal(f.points, []FadePoint{{50, 50}}) {
		t.Errorf("after remove [10,50) points = %v", f.points)
	}
}

func TestFader_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points []FadePoint
		start  uint64
		want   []float32 // gain per frame, 8 frames
	}{
		{"no points", nil, 0, []float32{1, 1, 1, 1, 1, 1, 1, 1}},
		{"ramp up", []FadePoint{{0, 0}, {4, 1}}, 0, []float32{0, 0.25, 0.5, 0.75, 1, 1, 1, 1}},
		{"before first point", []FadePoint{{4, 0}, {8, 1}}, 0, []float32{1, 1, 1, 1, 0, 0.25, 0.5, 0.75}},
		{"mid block start", []FadePoint{{0, 1}, {10, 0}}, 6, []float32{0.4, 0.3, 0.2, 0.1, 0, 0, 0, 0}},
		{"hold last", []FadePoint{{0, 0.5}}, 100, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFader()
			f.points = slices.Clone(tt.points)

			buf := make([]float32, 16)
			for i := range buf {
				buf[i] = 1
			}
			f.apply(buf, 2, tt.start)

			for i, w := range tt.want {
				if !near(buf[i*2], w) || !near(buf[i*2+1], w) {
					t.Errorf("frame %d = (%v, %v), want %v", i, buf[i*2], buf[i*2+1], w)
				}
			}
		})
	}
}

func TestFader_PrunesPassedPoints(t *testing.T) {
	t.Parallel()

	f := newFader()
	f.points = []FadePoint{{0, 0}, {2, 1}, {4, 0.5}, {100, 0}}
	f.apply(make([]float32, 20), 2, 0)

	want := []FadePoint{{4, 0.5}, {100, 0}}
	if !slices.Equal(f.points, want) {
		t.Errorf("points = %v, want %v", f.points, want)
	}
}

func TestFader_FadeTo(t *testing.T) {
	t.Parallel()

	f := newFader()
	f.value = 0.8
	f.points = []FadePoint{{5, 0.1}, {20, 0.2}, {40, 0.3}}
	f.fadeTo(10, 30, 0)

	want := []FadePoint{{5, 0.1}, {10, 0.8}, {30, 0}, {40, 0.3}}
	if !slices.Equal(f.points, want) {
		t.Errorf("points = %v, want %v", f.points, want)
	}
}
