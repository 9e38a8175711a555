package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty config gets defaults", config: Config{}},
		{name: "sqlite without dsn", config: Config{Storage: StorageConfig{Driver: "sqlite"}}},
		{name: "postgres without dsn", config: Config{Storage: StorageConfig{Driver: "postgres"}}, wantErr: true},
		{name: "unknown driver", config: Config{Storage: StorageConfig{Driver: "mysql"}}, wantErr: true},
		{name: "negative upload limit", config: Config{Storage: StorageConfig{MaxUploadMB: -1}}, wantErr: true},
		{name: "whispercpp without model", config: Config{ASR: ASRConfig{Provider: "whispercpp"}}, wantErr: true},
		{name: "whispercpp with model", config: Config{ASR: ASRConfig{Provider: "whispercpp", WhisperModel: "m.bin"}}},
		{name: "unknown asr", config: Config{ASR: ASRConfig{Provider: "vosk"}}, wantErr: true},
		{name: "gemini llm", config: Config{LLM: LLMConfig{Provider: "gemini"}}},
		{name: "unknown llm", config: Config{LLM: LLMConfig{Provider: "local"}}, wantErr: true},
		{name: "bad log format", config: Config{Logging: LoggingConfig{Format: "xml"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	var c Config
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}
	if c.MaxUploadBytes() != 1024<<20 {
		t.Errorf("MaxUploadBytes = %d", c.MaxUploadBytes())
	}
	if c.Storage.Driver != "memory" || c.ASR.Provider != "openai" || c.LLM.Provider != "openai" {
		t.Errorf("unexpected providers: %+v", c)
	}
	if c.Translation.TargetLanguage != "Polish" {
		t.Errorf("TargetLanguage = %q", c.Translation.TargetLanguage)
	}
	if c.FFmpeg.AudioBitrate != "128k" {
		t.Errorf("AudioBitrate = %q", c.FFmpeg.AudioBitrate)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidsub.yaml")
	content := `
server:
  addr: "127.0.0.1:9000"
storage:
  temp_dir: "/tmp/vidsub"
  max_upload_mb: 50
  driver: "sqlite"
  dsn: "sessions.db"
asr:
  provider: "openai"
  language: "pl"
llm:
  provider: "openrouter"
  model: "openai/gpt-4o-mini"
translation:
  target_language: "German"
logging:
  level: "debug"
  format: "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"VIDSUB_TARGET_LANGUAGE", "VIDSUB_LLM_PROVIDER", "VIDSUB_STORAGE_DRIVER", "VIDSUB_STORAGE_DSN", "VIDSUB_MAX_UPLOAD_MB", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	t.Setenv("OPENROUTER_BASE_URL", "https://api.openrouter.ai")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %v", cfg.Server.Addr)
	}
	if cfg.MaxUploadBytes() != 50<<20 {
		t.Errorf("MaxUploadBytes = %v", cfg.MaxUploadBytes())
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "sessions.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.ASR.Language != "pl" {
		t.Errorf("Language = %v", cfg.ASR.Language)
	}
	if cfg.Translation.TargetLanguage != "German" {
		t.Errorf("TargetLanguage = %v, empty env must not override", cfg.Translation.TargetLanguage)
	}
	if cfg.LLM.BaseURL != "https://api.openrouter.ai" {
		t.Errorf("LLM.BaseURL = %v", cfg.LLM.BaseURL)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %v", cfg.Logging.Format)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Error("Load() should return error for nonexistent file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should return error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	var c Config
	c.LLM.BaseURL = "https://file.example"
	c.ApplyEnv(envMap(map[string]string{
		"OPENAI_API_KEY":        " sk-test ",
		"OPENAI_ALLOWED_HOSTS":  "api.openai.com, proxy.example.com ,",
		"VIDSUB_LLM_PROVIDER":   "Gemini",
		"OPENROUTER_BASE_URL":   "https://openrouter.ai",
		"VIDSUB_STORAGE_DRIVER": "SQLITE",
		"VIDSUB_MAX_UPLOAD_MB":  "12",
		"LOG_LEVEL":             "warn",
	}))

	if c.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", c.APIKey)
	}
	if len(c.OpenAI.AllowedHosts) != 2 || c.OpenAI.AllowedHosts[1] != "proxy.example.com" {
		t.Errorf("AllowedHosts = %v", c.OpenAI.AllowedHosts)
	}
	if c.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q", c.LLM.Provider)
	}
	if c.LLM.BaseURL != "https://file.example" {
		t.Errorf("OpenRouter env must only apply to the openrouter provider, got %q", c.LLM.BaseURL)
	}
	if c.Storage.Driver != "sqlite" || c.Storage.MaxUploadMB != 12 {
		t.Errorf("Storage = %+v", c.Storage)
	}
	if c.Logging.Level != "warn" {
		t.Errorf("Level = %q", c.Logging.Level)
	}
}
