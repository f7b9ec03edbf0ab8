package tts

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PCM format used for synthesis and stitching. Matches the
// riff-16khz-16bit-mono-pcm output format requested from Azure.
const (
	sampleRate     = 16000
	bytesPerSample = 2
	numChannels    = 1
)

// silenceBytes returns the PCM payload for the given silence duration in
// milliseconds.
func silenceBytes(ms int) []byte {
	return make([]byte, sampleRate*bytesPerSample*numChannels*ms/1000)
}

// extractPCM pulls the raw sample data out of a RIFF/WAV payload by walking
// its chunks to the data chunk.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 12 || !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("not a RIFF/WAVE payload")
	}

	offset := 12
	for offset+8 <= len(wav) {
		chunkID := wav[offset : offset+4]
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))
		body := offset + 8

		if bytes.Equal(chunkID, []byte("data")) {
			if body+chunkSize > len(wav) {
				chunkSize = len(wav) - body
			}
			return wav[body : body+chunkSize], nil
		}

		// Chunks are word-aligned.
		offset = body + chunkSize + chunkSize%2
	}

	return nil, fmt.Errorf("no data chunk in WAV payload")
}

// encodeWAV wraps raw PCM samples in a canonical 44-byte RIFF header.
func encodeWAV(pcm []byte) []byte {
	var buf bytes.Buffer
	byteRate := sampleRate * numChannels * bytesPerSample

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels*bytesPerSample)) // block align
	binary.Write(&buf, binary.LittleEndian, uint16(8*bytesPerSample))           // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// concatWAV stitches several WAV payloads into one, inserting gapMs of
// silence between consecutive segments.
func concatWAV(segments [][]byte, gapMs int) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no audio segments to combine")
	}

	gap := silenceBytes(gapMs)
	var pcm []byte
	for i, segment := range segments {
		samples, err := extractPCM(segment)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, samples...)
	}

	return encodeWAV(pcm), nil
}
