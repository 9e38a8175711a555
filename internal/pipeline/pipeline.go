package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/vidsub/internal/config"
	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
	"github.com/forPelevin/vidsub/internal/usecase"
)

type Config struct {
	Input     string
	OutDir    string
	Translate bool
	Keys      Keys
	Settings  *config.Config
	Logf      func(format string, args ...any)
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if !usecase.IsVideoFile(c.Input) {
		return fmt.Errorf("%w: %s", usecase.ErrUnsupportedMedia, filepath.Ext(c.Input))
	}
	if c.Settings == nil {
		return errors.New("settings are required")
	}
	return ValidateEndpoints(c.Settings)
}

type Result struct {
	OutDir   string
	Manifest types.Manifest
}

// Run processes one local video end to end and writes every artifact plus
// manifest.json into a fresh run directory under OutDir.
func Run(ctx context.Context, cfg Config) (Result, error) {
	deps, err := BuildDeps(cfg.Settings, cfg.Keys)
	if err != nil {
		return Result{}, err
	}
	return run(ctx, cfg, deps, time.Now().UTC())
}

func run(ctx context.Context, cfg Config, deps usecase.Deps, now time.Time) (Result, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	uc := usecase.New(deps, UsecaseOptions(cfg.Settings, logf))

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, now)
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return Result{}, err
	}
	logf("output run dir: %s", runOutDir)

	s := session.New()
	f, err := os.Open(cfg.Input)
	if err != nil {
		return Result{}, err
	}
	err = uc.Ingest(ctx, s, filepath.Base(cfg.Input), f)
	_ = f.Close()
	if err != nil {
		return Result{}, err
	}

	m := types.Manifest{
		Input:     cfg.Input,
		SHA256:    s.Video.SHA256,
		CreatedAt: now,
	}

	if err := uc.ExtractAudio(ctx, s); err != nil {
		return Result{}, err
	}
	if err := uc.TranscribeAndSummarize(ctx, s); err != nil {
		if !isStep(err, usecase.StepSummary) {
			return Result{}, err
		}
		m.Errors = append(m.Errors, manifestError(err))
		logf("summary failed: %v", err)
	}
	if err := uc.GenerateSubtitles(s); err != nil {
		return Result{}, err
	}
	if cfg.Translate {
		if err := uc.Translate(ctx, s); err != nil {
			if !isStep(err, usecase.StepTranslate) {
				return Result{}, err
			}
			m.Errors = append(m.Errors, manifestError(err))
			logf("translation failed, untranslated subtitles kept: %v", err)
		}
	}

	m.Segments = len(s.Segments)
	if s.Summary != nil {
		m.Summary = *s.Summary
	}

	writers := []struct {
		kind string
		fn   func(*session.Session) (types.Artifact, error)
	}{
		{"subtitles", usecase.SubtitleArtifact},
		{"translated", usecase.TranslatedArtifact},
		{"summary", usecase.SummaryArtifact},
		{"transcript", transcriptArtifact},
		{"ass", usecase.ASSArtifact},
		{"docx", usecase.DocxArtifact},
		{"audio", usecase.AudioArtifact},
	}
	for _, w := range writers {
		art, err := w.fn(s)
		if errors.Is(err, usecase.ErrPrecondition) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", w.kind, err)
		}
		if err := os.WriteFile(filepath.Join(runOutDir, art.Name), art.Body, 0o644); err != nil {
			return Result{}, err
		}
		m.Files = append(m.Files, types.ManifestFile{Kind: w.kind, File: art.Name})
	}

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	logf("manifest written (%d files): %s", len(m.Files), manifestPath)
	return Result{OutDir: runOutDir, Manifest: m}, nil
}

func transcriptArtifact(s *session.Session) (types.Artifact, error) {
	if s.TranscriptText == nil {
		return types.Artifact{}, usecase.ErrNoTranscription
	}
	return types.Artifact{
		Name: s.BaseName() + "_transcript.txt",
		MIME: "text/plain; charset=utf-8",
		Body: []byte(*s.TranscriptText),
	}, nil
}

func isStep(err error, step string) bool {
	var se *usecase.StepError
	return errors.As(err, &se) && se.Step == step
}

func manifestError(err error) types.ManifestError {
	var se *usecase.StepError
	if errors.As(err, &se) {
		return types.ManifestError{Step: se.Step, Message: se.Err.Error()}
	}
	return types.ManifestError{Message: err.Error()}
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
