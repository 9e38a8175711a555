//go:build integration

package itest

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func probeDurationSeconds(mediaPath string) (float64, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

// makeToneVideo renders a black video with a sine tone of the given length.
func makeToneVideo(t *testing.T, dir, name string, seconds int) string {
	t.Helper()
	out := filepath.Join(dir, name)
	d := strconv.Itoa(seconds)
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:d="+d,
		"-f", "lavfi", "-i", "sine=frequency=440:duration="+d,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return out
}

// writeFakeMP4 writes a file that sniffs as MP4 but holds no decodable media.
func writeFakeMP4(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "broken.mp4")
	body := append([]byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2"), bytes.Repeat([]byte{0}, 64)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write fake mp4: %v", err)
	}
	return path
}
