// Package payload normalizes heterogeneous dictation input (audio,
// text, photo) into the canonical webhook submission shape.
package payload

import "fmt"

type Mode string

const (
	ModeNormal Mode = "normal"
	ModeTest   Mode = "test"
	ModeDMI    Mode = "dmi"
)

func AllModes() []Mode {
	return []Mode{ModeNormal, ModeTest, ModeDMI}
}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNormal, ModeTest, ModeDMI:
		return Mode(s), nil
	case "":
		return ModeNormal, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

type InputType string

const (
	InputAudio InputType = "audio"
	InputText  InputType = "text"
	InputPhoto InputType = "photo"
)

// Identity is the signed-in clinician as supplied by the upstream auth
// layer. Read-only here.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

type AudioInput struct {
	Blob            []byte
	DurationSeconds float64
	Format          string
}

type TextInput struct {
	Text string
}

type PhotoInput struct {
	Blob        []byte
	MimeType    string
	Description string
}

// RecordingInput is the tagged union of the three accepted input
// shapes. Exactly one variant must be set per submission.
type RecordingInput struct {
	Audio *AudioInput
	Text  *TextInput
	Photo *PhotoInput
}

// SubmissionPayload is the exact JSON shape POSTed to the n8n webhook.
type SubmissionPayload struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Mode        Mode      `json:"mode"`
	InputType   InputType `json:"inputType"`
	Data        Data      `json:"data"`
	Metadata    Metadata  `json:"metadata"`
}

type Data struct {
	AudioData string  `json:"audioData,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Format    string  `json:"format,omitempty"`

	Text string `json:"text,omitempty"`

	PhotoData   string `json:"photoData,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Description string `json:"description,omitempty"`
}

type Metadata struct {
	Timestamp     string `json:"timestamp"`
	ClientVersion string `json:"clientVersion"`
	SubmissionID  string `json:"submissionId,omitempty"`
}
