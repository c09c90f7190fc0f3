package media

import (
	"encoding/binary"
	"fmt"

	"github.com/dictamed/backend/internal/media"
)

const (
	wavHeaderSize    = 44
	pcmFormatCode    = 1
	targetBitDepth   = 16
	targetByteDepth  = 2
	targetChannels   = 1
)

// WAVCompressor re-encodes 16-bit PCM WAV audio as mono at a lower
// sample rate sufficient for speech transcription. Other containers
// (e.g. browser webm) are refused so the encoder sends them untouched.
type WAVCompressor struct {
	targetSampleRate int
}

func NewWAVCompressor(targetSampleRate int) media.Compressor {
	return &WAVCompressor{targetSampleRate: targetSampleRate}
}

func (c *WAVCompressor) CompressAudio(blob []byte, format string) ([]byte, error) {
	if !isWAVFormat(format) {
		return nil, fmt.Errorf("unsupported audio format %q", format)
	}
	fmtChunk, samples, err := parseWAV(blob)
	if err != nil {
		return nil, err
	}
	if int(fmtChunk.sampleRate) <= c.targetSampleRate && fmtChunk.channels == targetChannels {
		return blob, nil
	}

	mono := downmixToMono(samples, int(fmtChunk.channels))
	resampled := resample(mono, int(fmtChunk.sampleRate), c.targetSampleRate)
	return writeWAV(resampled, c.targetSampleRate), nil
}

func isWAVFormat(format string) bool {
	switch format {
	case "wav", "audio/wav", "audio/x-wav", "audio/wave":
		return true
	default:
		return false
	}
}

type wavFormat struct {
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

func parseWAV(blob []byte) (wavFormat, []int16, error) {
	var f wavFormat
	if len(blob) < wavHeaderSize {
		return f, nil, fmt.Errorf("wav too short: %d bytes", len(blob))
	}
	if string(blob[0:4]) != "RIFF" || string(blob[8:12]) != "WAVE" {
		return f, nil, fmt.Errorf("not a RIFF/WAVE container")
	}

	var data []byte
	haveFmt := false
	// Walk chunks; browsers sometimes insert LIST/fact chunks between
	// fmt and data.
	for off := 12; off+8 <= len(blob); {
		id := string(blob[off : off+4])
		size := int(binary.LittleEndian.Uint32(blob[off+4 : off+8]))
		body := off + 8
		if body+size > len(blob) {
			return f, nil, fmt.Errorf("chunk %q of %d bytes overruns blob", id, size)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			formatCode := binary.LittleEndian.Uint16(blob[body : body+2])
			if formatCode != pcmFormatCode {
				return f, nil, fmt.Errorf("unsupported wav format code %d", formatCode)
			}
			f.channels = binary.LittleEndian.Uint16(blob[body+2 : body+4])
			f.sampleRate = binary.LittleEndian.Uint32(blob[body+4 : body+8])
			f.bitsPerSample = binary.LittleEndian.Uint16(blob[body+14 : body+16])
			haveFmt = true
		case "data":
			data = blob[body : body+size]
		}
		// Chunks are word-aligned.
		off = body + size + size%2
	}

	if !haveFmt {
		return f, nil, fmt.Errorf("missing fmt chunk")
	}
	if data == nil {
		return f, nil, fmt.Errorf("missing data chunk")
	}
	if f.bitsPerSample != targetBitDepth {
		return f, nil, fmt.Errorf("unsupported bit depth %d", f.bitsPerSample)
	}
	if f.channels == 0 || f.sampleRate == 0 {
		return f, nil, fmt.Errorf("invalid fmt chunk: %d channels at %d Hz", f.channels, f.sampleRate)
	}

	samples := make([]int16, len(data)/targetByteDepth)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*targetByteDepth:]))
	}
	return f, samples, nil
}

func downmixToMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(samples[i*channels+ch])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

func resample(samples []int16, srcRate, dstRate int) []int16 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]int16, outLen)
	for i := range out {
		pos := float64(i) * float64(srcRate) / float64(dstRate)
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}

// writeWAV emits a canonical 44-byte header followed by the mono PCM
// data, with chunk sizes derived from the sample count.
func writeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * targetByteDepth
	buf := make([]byte, wavHeaderSize+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(buf[22:24], targetChannels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*targetChannels*targetByteDepth))
	binary.LittleEndian.PutUint16(buf[32:34], targetChannels*targetByteDepth)
	binary.LittleEndian.PutUint16(buf[34:36], targetBitDepth)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[wavHeaderSize+i*targetByteDepth:], uint16(s))
	}
	return buf
}
