package payload

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dictamed/backend/internal/apperror"
	"github.com/rs/xid"
)

const (
	MinTextLength = 5
	MaxTextLength = 50000
)

var allowedPhotoMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Classify determines which of the three input shapes was supplied.
// It runs before any validation or encoding; ambiguous or empty input
// is rejected outright.
func Classify(input RecordingInput) (InputType, error) {
	var types []InputType
	if input.Audio != nil {
		types = append(types, InputAudio)
	}
	if input.Text != nil {
		types = append(types, InputText)
	}
	if input.Photo != nil {
		types = append(types, InputPhoto)
	}
	switch len(types) {
	case 0:
		return "", apperror.Unclassifiable("no recording data supplied")
	case 1:
		return types[0], nil
	default:
		return "", apperror.Unclassifiable(fmt.Sprintf("ambiguous input: %d variants supplied", len(types)))
	}
}

// BinaryEncoder is the slice of the media encoder the builder needs:
// ceiling checks plus the transport-safe text encoding.
type BinaryEncoder interface {
	Encode(blob []byte) string
	PrepareAudio(blob []byte, format string) ([]byte, error)
}

// Builder assembles webhook payloads. It never mutates its input and
// holds no shared state beyond its injected collaborators.
type Builder struct {
	encoder       BinaryEncoder
	photoLimit    int64
	clientVersion string
	now           func() time.Time
	newID         func() string
}

func NewBuilder(encoder BinaryEncoder, photoLimit int64, clientVersion string) *Builder {
	return &Builder{
		encoder:       encoder,
		photoLimit:    photoLimit,
		clientVersion: clientVersion,
		now:           time.Now,
		newID:         func() string { return xid.New().String() },
	}
}

func (b *Builder) Build(input RecordingInput, identity Identity, mode Mode) (*SubmissionPayload, error) {
	inputType, err := Classify(input)
	if err != nil {
		return nil, err
	}

	var data Data
	switch inputType {
	case InputText:
		trimmed := strings.TrimSpace(input.Text.Text)
		if n := utf8.RuneCountInString(trimmed); n < MinTextLength {
			return nil, apperror.InvalidInput("text", fmt.Sprintf("text must be at least %d characters, got %d", MinTextLength, n))
		} else if n > MaxTextLength {
			return nil, apperror.InvalidInput("text", fmt.Sprintf("text must be at most %d characters, got %d", MaxTextLength, n))
		}
		data.Text = trimmed

	case InputPhoto:
		if _, ok := allowedPhotoMimeTypes[input.Photo.MimeType]; !ok {
			return nil, apperror.InvalidInput("mimeType", fmt.Sprintf("unsupported photo type %q", input.Photo.MimeType))
		}
		if size := int64(len(input.Photo.Blob)); size > b.photoLimit {
			return nil, apperror.InvalidInput("photo", fmt.Sprintf("photo of %d bytes exceeds the %d byte limit", size, b.photoLimit))
		}
		if len(input.Photo.Blob) == 0 {
			return nil, apperror.InvalidInput("photo", "photo blob is empty")
		}
		data.PhotoData = b.encoder.Encode(input.Photo.Blob)
		data.MimeType = input.Photo.MimeType
		data.Description = strings.TrimSpace(input.Photo.Description)

	case InputAudio:
		if len(input.Audio.Blob) == 0 {
			return nil, apperror.InvalidInput("audio", "audio blob is empty")
		}
		// Duration is informational; the recording UI enforces the ceiling.
		prepared, err := b.encoder.PrepareAudio(input.Audio.Blob, input.Audio.Format)
		if err != nil {
			return nil, err
		}
		data.AudioData = b.encoder.Encode(prepared)
		data.Duration = input.Audio.DurationSeconds
		data.Format = input.Audio.Format
	}

	return &SubmissionPayload{
		UserID:      identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Mode:        mode,
		InputType:   inputType,
		Data:        data,
		Metadata: Metadata{
			Timestamp:     b.now().UTC().Format(time.RFC3339),
			ClientVersion: b.clientVersion,
			SubmissionID:  b.newID(),
		},
	}, nil
}
