// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"
)

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 1000)
	resampler := NewResampler(src, 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("Resampler.SampleRate() = %d, want 8000", resampler.SampleRate())
	}
	if resampler.Channels() != 2 {
		t.Errorf("Resampler.Channels() = %d, want 2", resampler.Channels())
	}
}

func TestResampler_UnityRatioIsIdentity(t *testing.T) {
	t.Parallel()

	src := newRampSource(8000, 1, 100)
	got, err := drain(NewResampler(src, 8000), 32)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("len(samples) = %d, want 100", len(got))
	}
	for i, v := range got {
		if math.Abs(float64(v)-float64(i)) > 1e-4 {
			t.Fatalf("samples[%d] = %v, want %d", i, v, i)
		}
	}
}

func TestResampler_UpsampleStartsAtFirstFrame(t *testing.T) {
	t.Parallel()

	src := newRampSource(8000, 1, 50)
	got, err := drain(NewResampler(src, 16000), 16)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	// Output frame 2k lands exactly on source frame k.
	if got[0] != 0 {
		t.Errorf("samples[0] = %v, want 0", got[0])
	}
	for k := 1; k < 48; k++ {
		if math.Abs(float64(got[2*k])-float64(k)) > 1e-3 {
			t.Errorf("samples[%d] = %v, want %d", 2*k, got[2*k], k)
		}
	}
	// The last source frame is held for the trailing half step.
	if len(got) != 100 {
		t.Errorf("len(samples) = %d, want 100", len(got))
	}
	if v := got[98]; math.Abs(float64(v)-49) > 1e-3 {
		t.Errorf("samples[98] = %v, want 49", v)
	}
}

func TestResampler_Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		srcRate   int
		dstRate   int
		channels  int
		frames    int
		want      int
		tolerance int
	}{
		{"downsample 44.1k to 8k", 44100, 8000, 1, 44100, 8000, 100},
		{"upsample 8k to 44.1k", 8000, 44100, 1, 8000, 44100, 500},
		{"extreme downsample 48k to 8k", 48000, 8000, 1, 48000, 8000, 200},
		{"extreme upsample 8k to 48k", 8000, 48000, 1, 8000, 48000, 500},
		{"stereo 48k to 44.1k", 48000, 44100, 2, 4800, 4410 * 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newSineSource(tt.srcRate, tt.channels, tt.frames, 440.0)
			got, err := drain(NewResampler(src, tt.dstRate), 1024)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}

			if len(got) < tt.want-tt.tolerance || len(got) > tt.want+tt.tolerance {
				t.Errorf("resampled %d samples, want ≈%d (±%d)", len(got), tt.want, tt.tolerance)
			}
			for i, s := range got {
				if s < -1.5 || s > 1.5 {
					t.Fatalf("samples[%d] = %v, outside [-1.5, 1.5]", i, s)
				}
			}
		})
	}
}

func TestResampler_StereoPreserved(t *testing.T) {
	t.Parallel()

	src := newMockSource(44100, 2, 1000, func(sample int, channel int) float32 {
		if channel == 0 {
			return 0.3
		}
		return 0.7
	})
	resampler := NewResampler(src, 8000)

	buf := make([]float32, 20)
	n, err := resampler.ReadSamples(buf)
	if n == 0 {
		t.Fatal("ReadSamples() returned 0 samples")
	}
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	for f := range n / 2 {
		if left := buf[f*2]; math.Abs(float64(left-0.3)) > 1e-4 {
			t.Errorf("frame[%d] left = %v, want 0.3", f, left)
		}
		if right := buf[f*2+1]; math.Abs(float64(right-0.7)) > 1e-4 {
			t.Errorf("frame[%d] right = %v, want 0.7", f, right)
		}
	}
}

func TestResampler_EOF(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 1, 100)
	resampler := NewResampler(src, 8000)

	if _, err := drain(resampler, 1024); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	n, err := resampler.ReadSamples(make([]float32, 16))
	if err != io.EOF {
		t.Errorf("after EOF, ReadSamples() error = %v, want io.EOF", err)
	}
	if n != 0 {
		t.Errorf("after EOF, ReadSamples() n = %d, want 0", n)
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(newSilentSource(44100, 2, 0), 8000)
	n, err := resampler.ReadSamples(make([]float32, 8))
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	resampler := NewResampler(newSilentSource(44100, 2, 1000), 8000)

	_, err := resampler.ReadSamples(make([]float32, 7))
	if err != ErrInvalidDstSize {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_SmallBuffer(t *testing.T) {
	t.Parallel()

	src := newSineSource(44100, 2, 44100, 440.0)
	resampler := NewResampler(src, 8000)

	n, err := resampler.ReadSamples(make([]float32, 2))
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 2 {
		t.Errorf("ReadSamples() n = %d, want 2", n)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := newSilentSource(44100, 2, 1000)
	if err := NewResampler(src, 8000).Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if !src.closed {
		t.Error("Close() did not close the source")
	}
}

func TestResampler_MinimalAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	src := newSineSource(44100, 2, 1000000, 440.0)
	resampler := NewResampler(src, 8000)
	buf := make([]float32, 4096)
	resampler.ReadSamples(buf)

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = resampler.ReadSamples(buf)
	})
	if allocs > 0 {
		t.Errorf("Resampler.ReadSamples() allocated %v times, want 0", allocs)
	}
}

func TestSincResampler_Lengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcRate  int
		dstRate  int
		channels int
		frames   int
	}{
		{"44.1k to 48k stereo", 44100, 48000, 2, 44100},
		{"48k to 16k mono", 48000, 16000, 1, 48000},
		{"8k to 44.1k mono", 8000, 44100, 1, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newSineSource(tt.srcRate, tt.channels, tt.frames, 220.0)
			rs := NewSincResampler(src, tt.dstRate)
			if rs.SampleRate() != tt.dstRate || rs.Channels() != tt.channels {
				t.Fatalf("spec = %d/%d, want %d/%d", rs.SampleRate(), rs.Channels(), tt.dstRate, tt.channels)
			}

			got, err := drain(rs, 4096)
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}

			want := tt.frames * tt.dstRate / tt.srcRate * tt.channels
			tolerance := want / 50
			if len(got) < want-tolerance || len(got) > want+tolerance {
				t.Errorf("resampled %d samples, want ≈%d (±%d)", len(got), want, tolerance)
			}
			if len(got)%tt.channels != 0 {
				t.Errorf("len(samples) = %d, not a multiple of %d", len(got), tt.channels)
			}
		})
	}
}

func TestSincResampler_ConstantSignal(t *testing.T) {
	t.Parallel()

	src := newConstantSource(44100, 1, 44100, 0.5)
	got, err := drain(NewSincResampler(src, 22050), 1000)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	// Skip the filter edges.
	for i := 1000; i < len(got)-1000; i++ {
		if math.Abs(float64(got[i])-0.5) > 0.01 {
			t.Fatalf("samples[%d] = %v, want ≈0.5", i, got[i])
		}
	}
}

func TestSincResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	rs := NewSincResampler(newSilentSource(44100, 2, 100), 48000)
	if _, err := rs.ReadSamples(make([]float32, 3)); err != ErrInvalidDstSize {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResample_Selection(t *testing.T) {
	t.Parallel()

	src := newSilentSource(48000, 2, 10)
	if got := Resample(src, 48000, QualityHigh); got != Source(src) {
		t.Errorf("Resample() at the same rate = %T, want the source itself", got)
	}
	if _, ok := Resample(src, 44100, QualityCubic).(*Resampler); !ok {
		t.Error("Resample(QualityCubic) is not a *Resampler")
	}
	if _, ok := Resample(src, 44100, QualityHigh).(*SincResampler); !ok {
		t.Error("Resample(QualityHigh) is not a *SincResampler")
	}
}

func TestParseQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"", QualityCubic, false},
		{"cubic", QualityCubic, false},
		{"high", QualityHigh, false},
		{"sinc", QualityHigh, false},
		{"linear", QualityCubic, true},
	}

	for _, tt := range tests {
		got, err := ParseQuality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidEnum) {
			t.Errorf("ParseQuality(%q) error = %v, want ErrInvalidEnum", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseQuality(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func BenchmarkResampler_Downsample(b *testing.B) {
	src := newSineSource(44100, 2, 100000, 440.0)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		resampler := NewResampler(src, 8000)
		for {
			if _, err := resampler.ReadSamples(buf); err == io.EOF {
				break
			}
		}
	}
}

func BenchmarkSincResampler_48kTo44k(b *testing.B) {
	src := newSineSource(48000, 2, 48000, 440.0)
	buf := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		src.Reset()
		rs := NewSincResampler(src, 44100)
		for {
			if _, err := rs.ReadSamples(buf); err == io.EOF {
				break
			}
		}
	}
}
