package ports

import (
	"context"
	"time"

	"github.com/forPelevin/vidsub/internal/types"
)

type AudioExtractor interface {
	// ExtractAudioMP3 decodes the video's audio stream and returns it encoded as MP3.
	ExtractAudioMP3(ctx context.Context, inVideo string) ([]byte, error)
	ProbeDuration(ctx context.Context, inMedia string) (time.Duration, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (types.Transcript, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, msgs []types.Message) (string, error)
}
