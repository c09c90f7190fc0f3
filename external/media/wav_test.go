package media

import (
	"encoding/binary"
	"math"
	"testing"
)

// makeWAV builds a minimal PCM WAV blob with a 440 Hz tone.
func makeWAV(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()
	dataLen := frames * channels * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i := 0; i < frames; i++ {
		sample := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(buf[44+(i*channels+ch)*2:], uint16(sample))
		}
	}
	return buf
}

func TestCompressAudio_DownsamplesStereo48kToMono16k(t *testing.T) {
	c := NewWAVCompressor(16000)
	src := makeWAV(t, 48000, 2, 48000)

	out, err := c.CompressAudio(src, "wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) >= len(src) {
		t.Fatalf("expected smaller output, got %d >= %d", len(out), len(src))
	}

	fmtChunk, samples, err := parseWAV(out)
	if err != nil {
		t.Fatalf("output does not parse as wav: %v", err)
	}
	if fmtChunk.sampleRate != 16000 {
		t.Fatalf("expected 16000 Hz, got %d", fmtChunk.sampleRate)
	}
	if fmtChunk.channels != 1 {
		t.Fatalf("expected mono, got %d channels", fmtChunk.channels)
	}
	if fmtChunk.bitsPerSample != 16 {
		t.Fatalf("expected 16-bit, got %d", fmtChunk.bitsPerSample)
	}
	// One second of audio at the target rate.
	if len(samples) != 16000 {
		t.Fatalf("expected 16000 samples, got %d", len(samples))
	}
}

func TestCompressAudio_HeaderChunkSizesConsistent(t *testing.T) {
	c := NewWAVCompressor(16000)
	out, err := c.CompressAudio(makeWAV(t, 44100, 1, 44100), "wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	riffSize := binary.LittleEndian.Uint32(out[4:8])
	dataSize := binary.LittleEndian.Uint32(out[40:44])
	if int(riffSize) != len(out)-8 {
		t.Fatalf("RIFF size %d inconsistent with blob length %d", riffSize, len(out))
	}
	if int(dataSize) != len(out)-44 {
		t.Fatalf("data size %d inconsistent with blob length %d", dataSize, len(out))
	}
	byteRate := binary.LittleEndian.Uint32(out[28:32])
	if byteRate != 16000*2 {
		t.Fatalf("unexpected byte rate %d", byteRate)
	}
}

func TestCompressAudio_AlreadySmallPassesThrough(t *testing.T) {
	c := NewWAVCompressor(16000)
	src := makeWAV(t, 16000, 1, 1600)
	out, err := c.CompressAudio(src, "wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(src) {
		t.Fatalf("expected passthrough, got %d bytes from %d", len(out), len(src))
	}
}

func TestCompressAudio_RejectsNonWAVFormat(t *testing.T) {
	c := NewWAVCompressor(16000)
	if _, err := c.CompressAudio([]byte("not audio"), "webm"); err == nil {
		t.Fatal("expected error for non-wav format")
	}
}

func TestCompressAudio_RejectsGarbageBlob(t *testing.T) {
	c := NewWAVCompressor(16000)
	if _, err := c.CompressAudio([]byte("RIFFgarbage"), "wav"); err == nil {
		t.Fatal("expected error for malformed blob")
	}
}

func TestCompressAudio_RejectsNonPCM(t *testing.T) {
	c := NewWAVCompressor(16000)
	src := makeWAV(t, 48000, 1, 100)
	// Flip the format code to IEEE float.
	binary.LittleEndian.PutUint16(src[20:22], 3)
	if _, err := c.CompressAudio(src, "wav"); err == nil {
		t.Fatal("expected error for non-PCM wav")
	}
}
