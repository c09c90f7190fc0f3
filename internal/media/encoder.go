// Package media converts binary recording data into its transport
// form: base64 text, with oversized audio downsampled first.
package media

import (
	"encoding/base64"
	"log/slog"

	"github.com/dictamed/backend/internal/apperror"
)

// Compressor shrinks an audio blob. Implementations must return an
// error rather than a partial result when the input cannot be handled.
type Compressor interface {
	CompressAudio(blob []byte, format string) ([]byte, error)
}

// Encoder enforces the size ceilings and performs the base64 encoding.
// The soft limit triggers compression; the hard limit is an absolute
// rejection threshold.
type Encoder struct {
	compressor Compressor
	softLimit  int64
	hardLimit  int64
}

func NewEncoder(compressor Compressor, softLimit, hardLimit int64) *Encoder {
	return &Encoder{
		compressor: compressor,
		softLimit:  softLimit,
		hardLimit:  hardLimit,
	}
}

func (e *Encoder) Encode(blob []byte) string {
	return base64.StdEncoding.EncodeToString(blob)
}

func (e *Encoder) Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// PrepareAudio rejects blobs above the hard ceiling and compresses
// blobs above 80% of the soft ceiling. Compression is an optimization:
// any failure falls back to the original blob, never to an error.
func (e *Encoder) PrepareAudio(blob []byte, format string) ([]byte, error) {
	size := int64(len(blob))
	if size > e.hardLimit {
		return nil, apperror.PayloadTooLarge(size, e.hardLimit)
	}
	if size <= e.softLimit*80/100 {
		return blob, nil
	}

	compressed, err := e.compressor.CompressAudio(blob, format)
	if err != nil {
		slog.Warn("audio compression failed, sending original", "error", err, "format", format, "size_bytes", size)
		return blob, nil
	}
	if int64(len(compressed)) >= size {
		return blob, nil
	}
	slog.Debug("audio compressed", "original_bytes", size, "compressed_bytes", len(compressed))
	return compressed, nil
}
