package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forPelevin/vidsub/internal/domain/subtitles"
	"github.com/forPelevin/vidsub/internal/export"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
)

const (
	mimeText = "text/plain; charset=utf-8"
	mimeASS  = "text/x-ssa; charset=utf-8"
	mimeMP3  = "audio/mpeg"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func SubtitleArtifact(s *session.Session) (types.Artifact, error) {
	if s.Subtitles == nil {
		return types.Artifact{}, ErrNoSubtitles
	}
	return types.Artifact{Name: s.BaseName() + ".srt", MIME: mimeText, Body: []byte(*s.Subtitles)}, nil
}

func TranslatedArtifact(s *session.Session) (types.Artifact, error) {
	if s.Translated == nil {
		return types.Artifact{}, ErrNoTranslation
	}
	return types.Artifact{Name: s.BaseName() + "_translated.srt", MIME: mimeText, Body: []byte(*s.Translated)}, nil
}

func SummaryArtifact(s *session.Session) (types.Artifact, error) {
	if s.Summary == nil {
		return types.Artifact{}, ErrNoSummary
	}
	return types.Artifact{Name: s.BaseName() + "_summary.txt", MIME: mimeText, Body: []byte(*s.Summary)}, nil
}

func AudioArtifact(s *session.Session) (types.Artifact, error) {
	if s.Audio == nil {
		return types.Artifact{}, ErrNoAudio
	}
	b, err := os.ReadFile(s.Audio.Path)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("read audio: %w", err)
	}
	return types.Artifact{Name: s.BaseName() + filepath.Ext(s.Audio.Path), MIME: mimeMP3, Body: b}, nil
}

// ASSArtifact converts the current subtitle document to ASS.
func ASSArtifact(s *session.Session) (types.Artifact, error) {
	if s.Subtitles == nil {
		return types.Artifact{}, ErrNoSubtitles
	}
	entries, err := subtitles.Parse(*s.Subtitles)
	if err != nil {
		return types.Artifact{}, fmt.Errorf("parse subtitles: %w", err)
	}
	return types.Artifact{Name: s.BaseName() + ".ass", MIME: mimeASS, Body: []byte(subtitles.ComposeASS(entries))}, nil
}

// DocxArtifact renders the transcript and summary as a Word document.
func DocxArtifact(s *session.Session) (types.Artifact, error) {
	if !s.Transcribed() || s.TranscriptText == nil {
		return types.Artifact{}, ErrNoTranscription
	}
	summary := ""
	if s.Summary != nil {
		summary = *s.Summary
	}
	b, err := export.TranscriptDocx(s.BaseName(), summary, *s.TranscriptText)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Name: s.BaseName() + ".docx", MIME: mimeDocx, Body: b}, nil
}
