// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/go-audio/riff"

	"github.com/ik5/audmix/audio"
)

var (
	cueID  = [4]byte{'c', 'u', 'e', ' '}
	listID = [4]byte{'L', 'I', 'S', 'T'}
)

type cuePoint struct {
	ID           uint32
	Position     uint32
	DataChunkID  [4]byte
	ChunkStart   uint32
	BlockStart   uint32
	SampleOffset uint32
}

// ScanMarkers walks the RIFF chunks of a WAV file and returns its cue
// points, labelled from the LIST/adtl chunk, together with the sample rate
// from the fmt chunk. Cues without a label are named "cue<ID>". Markers are
// ordered by position.
func ScanMarkers(r io.ReadSeeker) ([]audio.Marker, int, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w", err)
	}

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}
	if p.Format != riff.WavFormatID {
		return nil, 0, ErrNotWavFile
	}

	var (
		cues   []cuePoint
		labels = map[uint32]string{}
		rate   int
	)

	for {
		ch, err := p.NextChunk()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, rate, fmt.Errorf("%w", err)
		}

		switch ch.ID {
		case riff.FmtID:
			if err := ch.DecodeWavHeader(p); err != nil {
				return nil, 0, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
			}
			rate = int(p.SampleRate)
		case riff.DataFormatID:
			// skip the samples without reading them
			if _, err := r.Seek(int64(ch.Size), io.SeekCurrent); err != nil {
				return nil, rate, fmt.Errorf("%w", err)
			}
			continue
		case cueID:
			cues, err = readCues(ch)
			if err != nil {
				return nil, rate, err
			}
		case listID:
			if err := readLabels(ch, labels); err != nil {
				return nil, rate, err
			}
		}
		ch.Drain()
	}

	markers := make([]audio.Marker, 0, len(cues))
	for _, c := range cues {
		label, ok := labels[c.ID]
		if !ok {
			label = "cue" + strconv.FormatUint(uint64(c.ID), 10)
		}
		markers = append(markers, audio.Marker{Label: label, Position: uint64(c.SampleOffset)})
	}
	slices.SortStableFunc(markers, func(a, b audio.Marker) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})

	return markers, rate, nil
}

func readCues(ch *riff.Chunk) ([]cuePoint, error) {
	var count uint32
	if err := ch.ReadLE(&count); err != nil {
		return nil, fmt.Errorf("reading cue count: %w", err)
	}
	// 24 bytes per cue point after the count
	if int(count) > (ch.Size-4)/24 {
		return nil, fmt.Errorf("%w: %d cue points in %d bytes", ErrUnsupportedWavLayout, count, ch.Size)
	}

	cues := make([]cuePoint, count)
	for i := range cues {
		if err := ch.ReadLE(&cues[i]); err != nil {
			return nil, fmt.Errorf("reading cue point %d: %w", i, err)
		}
	}
	return cues, nil
}

// readLabels collects labl entries of a LIST/adtl chunk. Other LIST types
// (INFO) are ignored.
func readLabels(ch *riff.Chunk, labels map[uint32]string) error {
	body := make([]byte, ch.Size)
	if _, err := io.ReadFull(ch, body); err != nil {
		return fmt.Errorf("reading LIST chunk: %w", err)
	}
	if len(body) < 4 || string(body[:4]) != "adtl" {
		return nil
	}

	for rest := body[4:]; len(rest) >= 8; {
		id := string(rest[:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		rest = rest[8:]
		if size > len(rest) {
			break
		}
		payload := rest[:size]

		if id == "labl" && size >= 4 {
			cue := binary.LittleEndian.Uint32(payload[:4])
			text := payload[4:]
			if i := bytes.IndexByte(text, 0); i >= 0 {
				text = text[:i]
			}
			labels[cue] = string(text)
		}

		if size%2 == 1 {
			size++
		}
		rest = rest[min(size, len(rest)):]
	}
	return nil
}
