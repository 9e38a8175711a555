//go:build integration

package itest

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/forPelevin/vidsub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/usecase"
)

func TestExtractAudio_PreservesDuration(t *testing.T) {
	tmp := t.TempDir()
	in := makeToneVideo(t, tmp, "tone.mp4", 10)

	uc := usecase.New(usecase.Deps{Extractor: ffmpeg.New("", "", "")}, usecase.Options{TempDir: tmp})
	s := session.New()

	f, err := os.Open(in)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := uc.Ingest(ctx, s, "tone.mp4", f); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := uc.ExtractAudio(ctx, s); err != nil {
		t.Fatalf("extract: %v", err)
	}

	got, err := probeDurationSeconds(s.Audio.Path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if math.Abs(got-10) > 0.2 {
		t.Fatalf("expected ~10s of audio, got %.3fs", got)
	}
}

func TestExtractAudio_UndecodableInput(t *testing.T) {
	tmp := t.TempDir()
	uc := usecase.New(usecase.Deps{Extractor: ffmpeg.New("", "", "")}, usecase.Options{TempDir: tmp})
	s := session.New()

	f, err := os.Open(writeFakeMP4(t, tmp))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := uc.Ingest(context.Background(), s, "broken.mp4", f); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	err = uc.ExtractAudio(context.Background(), s)
	var se *usecase.StepError
	if !errors.As(err, &se) || se.Step != usecase.StepExtract {
		t.Fatalf("expected extract step error, got %v", err)
	}
	if s.Audio != nil {
		t.Fatalf("expected no audio on failure")
	}
}
