// SPDX-License-Identifier: EPL-2.0

package audio

// Marker labels a frame position inside a sound, e.g. a WAV cue point.
type Marker struct {
	Label    string
	Position uint64
}

// RescaleMarkers returns markers with positions converted from srcRate to
// dstRate. The input slice is not modified.
func RescaleMarkers(markers []Marker, srcRate, dstRate int) []Marker {
	if len(markers) == 0 {
		return nil
	}

	out := make([]Marker, len(markers))
	for i, m := range markers {
		out[i] = m
		if srcRate > 0 && dstRate > 0 && srcRate != dstRate {
			out[i].Position = m.Position * uint64(dstRate) / uint64(srcRate)
		}
	}
	return out
}
