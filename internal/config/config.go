package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when present and no --config flag is given.
const DefaultPath = "vidsub.yaml"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	ASR         ASRConfig         `yaml:"asr"`
	LLM         LLMConfig         `yaml:"llm"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Translation TranslationConfig `yaml:"translation"`
	Logging     LoggingConfig     `yaml:"logging"`
	Watch       WatchConfig       `yaml:"watch"`

	// Credentials come from the environment only and are never written back.
	APIKey    string `yaml:"-"`
	LLMAPIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	TempDir     string `yaml:"temp_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
}

type FFmpegConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type ASRConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	Language     string `yaml:"language"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
}

type LLMConfig struct {
	Provider     string   `yaml:"provider"`
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type OpenAIConfig struct {
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type TranslationConfig struct {
	TargetLanguage string `yaml:"target_language"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WatchConfig struct {
	Inbox  string `yaml:"inbox"`
	Output string `yaml:"output"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with set environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(k string) (string, bool) {
		v, ok := lookup(k)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("OPENAI_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := get("LLM_API_KEY"); ok {
		c.LLMAPIKey = v
	}
	if v, ok := get("OPENAI_BASE_URL"); ok {
		c.OpenAI.BaseURL = v
	}
	if v, ok := get("OPENAI_ALLOWED_HOSTS"); ok {
		c.OpenAI.AllowedHosts = splitList(v)
	}
	if v, ok := get("VIDSUB_LLM_PROVIDER"); ok {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v, ok := get("VIDSUB_LLM_MODEL"); ok {
		c.LLM.Model = v
	}
	if c.LLM.Provider == "openrouter" {
		if v, ok := get("OPENROUTER_BASE_URL"); ok {
			c.LLM.BaseURL = v
		}
		if v, ok := get("OPENROUTER_ALLOWED_HOSTS"); ok {
			c.LLM.AllowedHosts = splitList(v)
		}
	}
	if v, ok := get("VIDSUB_TARGET_LANGUAGE"); ok {
		c.Translation.TargetLanguage = v
	}
	if v, ok := get("VIDSUB_STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := get("VIDSUB_STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := get("VIDSUB_MAX_UPLOAD_MB"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Storage.MaxUploadMB = n
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
}

// Validate rejects unknown enum values and fills defaults.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Storage.MaxUploadMB < 0 {
		return errors.New("storage.max_upload_mb must be >= 0")
	}
	if c.Storage.MaxUploadMB == 0 {
		c.Storage.MaxUploadMB = 1024
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, sqlite, postgres", c.Storage.Driver)
	}

	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
	if c.FFmpeg.AudioBitrate == "" {
		c.FFmpeg.AudioBitrate = "128k"
	}

	if c.ASR.Provider == "" {
		c.ASR.Provider = "openai"
	}
	switch c.ASR.Provider {
	case "openai":
	case "whispercpp":
		if c.ASR.WhisperModel == "" {
			return errors.New("asr.whisper_model is required for whispercpp")
		}
		if c.ASR.WhisperBin == "" {
			c.ASR.WhisperBin = ".cache/bin/whisper.cpp"
		}
	default:
		return fmt.Errorf("asr.provider %q is not one of openai, whispercpp", c.ASR.Provider)
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	switch c.LLM.Provider {
	case "openai", "openrouter", "gemini":
	default:
		return fmt.Errorf("llm.provider %q is not one of openai, openrouter, gemini", c.LLM.Provider)
	}

	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = "Polish"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	if c.Watch.Inbox == "" {
		c.Watch.Inbox = "data/inbox"
	}
	if c.Watch.Output == "" {
		c.Watch.Output = "out"
	}
	return nil
}

// MaxUploadBytes converts the configured limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB << 20
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
