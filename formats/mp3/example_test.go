// SPDX-License-Identifier: EPL-2.0

package mp3_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/mp3"
)

// ExampleDecoder_Decode streams an MP3 file as 16kHz mono.
func ExampleDecoder_Decode() {
	f, err := os.Open("input.mp3")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	src, err := mp3.Decoder{}.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))

	buf := make([]float32, 1024)
	var total int
	for {
		n, err := mono.ReadSamples(buf)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("read %d samples\n", total)
}

// ExampleDecoder_Decode_errorHandling shows the error for data that is not
// MP3.
func ExampleDecoder_Decode_errorHandling() {
	_, err := mp3.Decoder{}.Decode(bytes.NewReader([]byte("not an mp3 file")))
	fmt.Println(err != nil)

	// Output:
	// true
}
