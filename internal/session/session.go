package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/vidsub/internal/types"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("another action is in progress for this session")
)

// View selects which text the session currently displays.
type View string

const (
	ViewTranscript  View = "transcript"
	ViewTranslation View = "translation"
)

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewTranscript, ViewTranslation:
		return View(s), nil
	default:
		return "", errors.New("unknown view: " + s)
	}
}

// DefaultBaseName names artifacts when no video has been uploaded.
const DefaultBaseName = "subtitles"

// Session is the per-user working state. Optional artifacts are nil until the
// step that produces them succeeds.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	Video *types.VideoAsset
	Audio *types.AudioAsset

	// Segments is nil until a transcription has run; an empty non-nil slice
	// means the audio contained no speech.
	Segments       []types.Segment
	TranscriptText *string
	Subtitles      *string
	Translated     *string
	Summary        *string
	View           View
}

func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		View:      ViewTranscript,
	}
}

func (s *Session) Transcribed() bool { return s.Segments != nil }

func (s *Session) BaseName() string {
	if s.Video == nil || s.Video.BaseName == "" {
		return DefaultBaseName
	}
	return s.Video.BaseName
}

// DisplayedText returns the text for the selected view. It falls back to the
// transcript when no translation exists.
func (s *Session) DisplayedText() string {
	if s.View == ViewTranslation && s.Translated != nil {
		return *s.Translated
	}
	if s.TranscriptText != nil {
		return *s.TranscriptText
	}
	return ""
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Video != nil {
		v := *s.Video
		out.Video = &v
	}
	if s.Audio != nil {
		a := *s.Audio
		out.Audio = &a
	}
	if s.Segments != nil {
		out.Segments = append(make([]types.Segment, 0, len(s.Segments)), s.Segments...)
	}
	out.TranscriptText = cloneString(s.TranscriptText)
	out.Subtitles = cloneString(s.Subtitles)
	out.Translated = cloneString(s.Translated)
	out.Summary = cloneString(s.Summary)
	return &out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func StringPtr(s string) *string { return &s }
