// SPDX-License-Identifier: EPL-2.0

package audio

// TimeUnit selects how a time position is expressed.
type TimeUnit int

const (
	Micros TimeUnit = iota
	Millis
	Frames
	Bytes
)

func (u TimeUnit) String() string {
	switch u {
	case Micros:
		return "us"
	case Millis:
		return "ms"
	case Frames:
		return "frames"
	case Bytes:
		return "bytes"
	}
	return "unknown"
}

// ConvertTime converts value from one unit to another for a stream
// described by spec. Frame and byte positions are truncated to whole
// frames.
func ConvertTime(value float64, from, to TimeUnit, spec Spec) (float64, error) {
	const op = "audio.ConvertTime"

	if from == to {
		return value, nil
	}
	if spec.Freq <= 0 {
		return 0, Errorf(ErrInvalidArg, op, "sample rate %d", spec.Freq)
	}

	var frames float64
	switch from {
	case Micros:
		frames = value * float64(spec.Freq) / 1e6
	case Millis:
		frames = value * float64(spec.Freq) / 1e3
	case Frames:
		frames = value
	case Bytes:
		bpf := spec.BytesPerFrame()
		if bpf <= 0 {
			return 0, Errorf(ErrInvalidArg, op, "spec %v has no frame size", spec)
		}
		frames = float64(int64(value) / int64(bpf))
	default:
		return 0, Errorf(ErrInvalidEnum, op, "time unit %d", from)
	}

	switch to {
	case Micros:
		return frames * 1e6 / float64(spec.Freq), nil
	case Millis:
		return frames * 1e3 / float64(spec.Freq), nil
	case Frames:
		return float64(int64(frames)), nil
	case Bytes:
		return float64(int64(frames) * int64(spec.BytesPerFrame())), nil
	}
	return 0, Errorf(ErrInvalidEnum, op, "time unit %d", to)
}
