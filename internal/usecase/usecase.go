package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/forPelevin/vidsub/internal/domain/subtitles"
	"github.com/forPelevin/vidsub/internal/ports"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
)

const (
	DefaultSummaryLimit   = 300
	DefaultTargetLanguage = "Polish"
	DefaultMaxUploadBytes = 1024 << 20
)

type Deps struct {
	Extractor   ports.AudioExtractor
	Transcriber ports.Transcriber
	Generator   ports.TextGenerator
}

type Options struct {
	// TempDir receives uploaded videos and extracted audio. Empty means os.TempDir().
	TempDir        string
	MaxUploadBytes int64
	TargetLanguage string
	SummaryLimit   int
	Logf           func(format string, args ...any)
}

type Usecase struct {
	d Deps
	o Options
}

func New(d Deps, o Options) Usecase {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if strings.TrimSpace(o.TargetLanguage) == "" {
		o.TargetLanguage = DefaultTargetLanguage
	}
	if o.SummaryLimit <= 0 {
		o.SummaryLimit = DefaultSummaryLimit
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	return Usecase{d: d, o: o}
}

// ExtractAudio converts the uploaded video's audio track to MP3.
func (u Usecase) ExtractAudio(ctx context.Context, s *session.Session) error {
	if s.Video == nil {
		return ErrNoVideo
	}
	u.o.Logf("extracting audio: %s", s.Video.Path)
	mp3, err := u.d.Extractor.ExtractAudioMP3(ctx, s.Video.Path)
	if err != nil {
		return &StepError{Step: StepExtract, Err: err}
	}
	f, err := os.CreateTemp(u.o.TempDir, "vidsub-*.mp3")
	if err != nil {
		return &StepError{Step: StepExtract, Err: fmt.Errorf("create audio file: %w", err)}
	}
	if _, err := f.Write(mp3); err != nil {
		_ = f.Close()
		return &StepError{Step: StepExtract, Err: fmt.Errorf("write audio file: %w", err)}
	}
	if err := f.Close(); err != nil {
		return &StepError{Step: StepExtract, Err: fmt.Errorf("close audio file: %w", err)}
	}
	audio := &types.AudioAsset{Path: f.Name(), Size: int64(len(mp3))}
	if d, err := u.d.Extractor.ProbeDuration(ctx, f.Name()); err != nil {
		u.o.Logf("probe audio duration: %v", err)
	} else {
		audio.Duration = d
	}
	s.Audio = audio
	u.o.Logf("audio extracted: %s (%d bytes, %s)", f.Name(), len(mp3), audio.Duration)
	return nil
}

// Transcribe replaces the segments and transcript text with a fresh
// transcription. Subtitles, translation and summary from earlier runs are kept.
func (u Usecase) Transcribe(ctx context.Context, s *session.Session) error {
	if s.Audio == nil {
		return ErrNoAudio
	}
	u.o.Logf("transcribing: %s", s.Audio.Path)
	tr, err := u.d.Transcriber.Transcribe(ctx, s.Audio.Path)
	if err != nil {
		return &StepError{Step: StepTranscribe, Err: err}
	}

	segs := make([]types.Segment, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		// one segment must stay one non-empty transcript line
		seg.Text = strings.TrimSpace(lineBreaks.Replace(seg.Text))
		if seg.Text == "" {
			continue
		}
		segs = append(segs, seg)
	}
	text := strings.Join(types.Transcript{Segments: segs}.Lines(), "\n")

	s.Segments = segs
	s.TranscriptText = &text
	s.View = session.ViewTranscript
	u.o.Logf("transcribed %d segments", len(segs))
	return nil
}

// Summarize asks the text generator for a short description of the transcript.
func (u Usecase) Summarize(ctx context.Context, s *session.Session) error {
	if s.TranscriptText == nil || strings.TrimSpace(*s.TranscriptText) == "" {
		return ErrNoTranscriptText
	}
	out, err := u.d.Generator.Generate(ctx, []types.Message{
		{Role: types.RoleSystem, Content: summaryPrompt(u.o.SummaryLimit)},
		{Role: types.RoleUser, Content: *s.TranscriptText},
	})
	if err != nil {
		return &StepError{Step: StepSummary, Err: err}
	}
	summary := truncateRunes(strings.TrimSpace(out), u.o.SummaryLimit)
	s.Summary = &summary
	u.o.Logf("summary: %d characters", len([]rune(summary)))
	return nil
}

// TranscribeAndSummarize runs transcription, then the summary. A summary
// failure is returned but the transcription result is kept on the session.
// Silence yields no summary and no error.
func (u Usecase) TranscribeAndSummarize(ctx context.Context, s *session.Session) error {
	if err := u.Transcribe(ctx, s); err != nil {
		return err
	}
	if strings.TrimSpace(*s.TranscriptText) == "" {
		return nil
	}
	return u.Summarize(ctx, s)
}

// GenerateSubtitles pairs transcript line i with segment i and stores the SRT
// document. A line/segment count mismatch is rejected and the previous document
// is kept.
func (u Usecase) GenerateSubtitles(s *session.Session) error {
	if !s.Transcribed() {
		return ErrNoTranscription
	}
	text := ""
	if s.TranscriptText != nil {
		text = *s.TranscriptText
	}
	entries, err := subtitles.BuildEntries(s.Segments, text)
	if err != nil {
		return err
	}
	doc := subtitles.Compose(entries)
	s.Subtitles = &doc
	u.o.Logf("subtitles generated: %d entries", len(entries))
	return nil
}

// Translate sends the subtitle document to the text generator. The reply is
// stored as-is and the display switches to it; the transcript is untouched.
func (u Usecase) Translate(ctx context.Context, s *session.Session) error {
	if s.Subtitles == nil {
		return ErrNoSubtitles
	}
	u.o.Logf("translating subtitles into %s", u.o.TargetLanguage)
	out, err := u.d.Generator.Generate(ctx, []types.Message{
		{Role: types.RoleSystem, Content: translatePrompt(u.o.TargetLanguage)},
		{Role: types.RoleUser, Content: *s.Subtitles},
	})
	if err != nil {
		return &StepError{Step: StepTranslate, Err: err}
	}
	s.Translated = &out
	s.View = session.ViewTranslation
	return nil
}

func (u Usecase) EditTranscript(s *session.Session, text string) error {
	if !s.Transcribed() {
		return ErrNoTranscription
	}
	s.TranscriptText = &text
	s.View = session.ViewTranscript
	return nil
}

func (u Usecase) SelectView(s *session.Session, v session.View) error {
	switch v {
	case session.ViewTranscript:
	case session.ViewTranslation:
		if s.Translated == nil {
			return ErrNoTranslation
		}
	default:
		return fmt.Errorf("unknown view %q", v)
	}
	s.View = v
	return nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
