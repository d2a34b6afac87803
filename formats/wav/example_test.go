// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/formats/wav"
)

// Example_roundTrip writes 16-bit stereo PCM and decodes it back.
func Example_roundTrip() {
	var file bytes.Buffer
	samples := []int16{16384, -16384, 8192, -8192}
	if err := wav.WriteWAV16(&file, 8000, 2, samples); err != nil {
		fmt.Println(err)
		return
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(file.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := make([]float32, 8)
	n, err := src.ReadSamples(buf)
	fmt.Println(src.SampleRate(), src.Channels(), buf[:n], err == io.EOF)
	// Output:
	// 8000 2 [0.5 -0.5 0.25 -0.25] true
}

// Example_errorNotWAV shows the error for non-WAV input.
func Example_errorNotWAV() {
	_, err := wav.Decoder{}.Decode(bytes.NewReader([]byte("definitely not a wav file")))
	fmt.Println(errors.Is(err, wav.ErrNotWavFile))
	// Output:
	// true
}
