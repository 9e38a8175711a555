package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
)

var errRemote = errors.New("remote said no")

type fakeExtractor struct {
	mp3      []byte
	err      error
	calls    int
	dur      time.Duration
	probeErr error
}

func (f *fakeExtractor) ExtractAudioMP3(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.mp3, nil
}

func (f *fakeExtractor) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	return f.dur, f.probeErr
}

type fakeTranscriber struct {
	tr  types.Transcript
	err error
}

func (f fakeTranscriber) Transcribe(_ context.Context, _ string) (types.Transcript, error) {
	return f.tr, f.err
}

// fakeGenerator answers with replies in order and records every request.
type fakeGenerator struct {
	replies []string
	errs    []error
	got     [][]types.Message
}

func (f *fakeGenerator) Generate(_ context.Context, msgs []types.Message) (string, error) {
	i := len(f.got)
	f.got = append(f.got, msgs)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func twoSegments() types.Transcript {
	return types.Transcript{Segments: []types.Segment{
		{Start: 0.0, End: 2.0, Text: "Hello"},
		{Start: 2.0, End: 4.0, Text: "world"},
	}}
}

func transcribedSession() *session.Session {
	s := session.New()
	s.Segments = twoSegments().Segments
	s.TranscriptText = session.StringPtr("Hello\nworld")
	return s
}
