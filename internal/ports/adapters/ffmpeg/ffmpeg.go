package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	bitrate string
}

func New(ffmpegPath, ffprobePath, audioBitrate string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if audioBitrate == "" {
		audioBitrate = "128k"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, bitrate: audioBitrate}
}

// ExtractAudioMP3 transcodes the first audio stream to MP3 on stdout so the
// caller gets the bytes without an intermediate file.
func (a *Adapter) ExtractAudioMP3(ctx context.Context, inVideo string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, a.mp3Args(inVideo)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract audio: %w\n%s", err, tail(stderr.String(), 2000))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg extract audio: empty output (no audio stream?)")
	}
	return stdout.Bytes(), nil
}

func (a *Adapter) mp3Args(inVideo string) []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inVideo,
		"-vn",
		"-map", "0:a:0",
		"-c:a", "libmp3lame",
		"-b:a", a.bitrate,
		"-f", "mp3",
		"pipe:1",
	}
}

// ExtractAudioMono16k writes a 16 kHz mono WAV, the input format whisper.cpp expects.
func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-nostdin",
		"-i", inMedia,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg convert to wav: %w\n%s", err, tail(string(b), 2000))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMedia string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMedia,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return parseDuration(string(b))
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// tail keeps the end of ffmpeg's stderr, where the actual error usually is.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
