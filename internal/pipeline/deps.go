package pipeline

import (
	"fmt"

	"github.com/forPelevin/vidsub/internal/config"
	"github.com/forPelevin/vidsub/internal/ports"
	"github.com/forPelevin/vidsub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/vidsub/internal/ports/adapters/gemini"
	"github.com/forPelevin/vidsub/internal/ports/adapters/openai"
	"github.com/forPelevin/vidsub/internal/ports/adapters/openrouter"
	"github.com/forPelevin/vidsub/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/vidsub/internal/usecase"
)

// ValidateEndpoints checks the base URLs of the providers that will be used.
func ValidateEndpoints(s *config.Config) error {
	if s.ASR.Provider == "openai" || s.LLM.Provider == "openai" {
		if err := openai.Endpoint.Validate(s.OpenAI.BaseURL, s.OpenAI.AllowedHosts); err != nil {
			return err
		}
	}
	if s.LLM.Provider == "openrouter" {
		if err := openrouter.Endpoint.Validate(s.LLM.BaseURL, s.LLM.AllowedHosts); err != nil {
			return err
		}
	}
	return nil
}

// Keys are the credentials a run or a session works with.
type Keys struct {
	// OpenAI authenticates transcription and, unless LLM is set, text generation.
	OpenAI string
	LLM    string
}

func (k Keys) textGeneration() string {
	if k.LLM != "" {
		return k.LLM
	}
	return k.OpenAI
}

// Need selects the remote adapters a step calls. Only those are built, so a
// step is not refused for a key it never uses.
type Need struct {
	Transcriber bool
	Generator   bool
}

// NeedAll is what a full batch run uses.
var NeedAll = Need{Transcriber: true, Generator: true}

// BuildDeps wires every configured adapter. A missing key for a provider that
// needs one yields usecase.ErrMissingCredential.
func BuildDeps(s *config.Config, keys Keys) (usecase.Deps, error) {
	return BuildDepsFor(s, keys, NeedAll)
}

// BuildDepsFor wires the extractor plus the adapters named by need.
func BuildDepsFor(s *config.Config, keys Keys, need Need) (usecase.Deps, error) {
	v := NewExtractor(s)
	d := usecase.Deps{Extractor: v}
	if need.Transcriber {
		asr, err := newTranscriber(s, keys, v)
		if err != nil {
			return usecase.Deps{}, err
		}
		d.Transcriber = asr
	}
	if need.Generator {
		llm, err := newGenerator(s, keys)
		if err != nil {
			return usecase.Deps{}, err
		}
		d.Generator = llm
	}
	return d, nil
}

func newTranscriber(s *config.Config, keys Keys, v *ffmpeg.Adapter) (ports.Transcriber, error) {
	if s.ASR.Provider == "whispercpp" {
		return whispercpp.New(s.ASR.WhisperBin, s.ASR.WhisperModel, s.ASR.Language, v), nil
	}
	if keys.OpenAI == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY", usecase.ErrMissingCredential)
	}
	return openai.New(openai.Options{
		APIKey:          keys.OpenAI,
		BaseURL:         s.OpenAI.BaseURL,
		TranscribeModel: s.ASR.Model,
		Language:        s.ASR.Language,
	}), nil
}

func newGenerator(s *config.Config, keys Keys) (ports.TextGenerator, error) {
	key := keys.textGeneration()
	if key == "" {
		return nil, fmt.Errorf("%w: LLM_API_KEY or OPENAI_API_KEY", usecase.ErrMissingCredential)
	}
	switch s.LLM.Provider {
	case "openrouter":
		return openrouter.New(key, s.LLM.Model, s.LLM.BaseURL), nil
	case "gemini":
		return gemini.New(key, s.LLM.Model), nil
	default:
		return openai.New(openai.Options{
			APIKey:    key,
			BaseURL:   s.OpenAI.BaseURL,
			ChatModel: s.LLM.Model,
		}), nil
	}
}

// NewExtractor returns the ffmpeg adapter. Extraction needs no credential.
func NewExtractor(s *config.Config) *ffmpeg.Adapter {
	return ffmpeg.New(s.FFmpeg.FFmpegPath, s.FFmpeg.FFprobePath, s.FFmpeg.AudioBitrate)
}

func UsecaseOptions(s *config.Config, logf func(string, ...any)) usecase.Options {
	return usecase.Options{
		TempDir:        s.Storage.TempDir,
		MaxUploadBytes: s.MaxUploadBytes(),
		TargetLanguage: s.Translation.TargetLanguage,
		Logf:           logf,
	}
}

// ensure adapters implement ports
var _ ports.AudioExtractor = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*openai.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.TextGenerator = (*openai.Adapter)(nil)
var _ ports.TextGenerator = (*openrouter.Adapter)(nil)
var _ ports.TextGenerator = (*gemini.Adapter)(nil)
