package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/vidsub/internal/ports/adapters/apiclient"
	"github.com/forPelevin/vidsub/internal/types"
)

const (
	DefaultTranscribeModel = "whisper-1"
	DefaultChatModel       = "gpt-4-turbo"

	transcriptionsPath = "/v1/audio/transcriptions"
	chatPath           = "/v1/chat/completions"

	requestTimeout = 10 * time.Minute
)

var Endpoint = apiclient.Endpoint{
	EnvName:      "OPENAI_BASE_URL",
	AllowEnvName: "OPENAI_ALLOWED_HOSTS",
	DefaultURL:   "https://api.openai.com",
	DefaultHosts: []string{"api.openai.com"},
}

type Options struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	ChatModel       string
	// Language is an optional ISO-639-1 hint for transcription.
	Language string
}

type Adapter struct {
	client          *apiclient.Client
	transcribeModel string
	chatModel       string
	language        string
}

func New(o Options) *Adapter {
	if o.TranscribeModel == "" {
		o.TranscribeModel = DefaultTranscribeModel
	}
	if o.ChatModel == "" {
		o.ChatModel = DefaultChatModel
	}
	return &Adapter{
		client:          apiclient.New("openai", o.APIKey, Endpoint.Normalize(o.BaseURL), requestTimeout),
		transcribeModel: o.TranscribeModel,
		chatModel:       o.ChatModel,
		language:        o.Language,
	}
}

type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (types.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return types.Transcript{}, err
	}
	defer f.Close()

	body, contentType, err := a.transcriptionForm(filepath.Base(audioPath), f)
	if err != nil {
		return types.Transcript{}, err
	}

	var raw verboseTranscription
	if err := a.client.Post(ctx, transcriptionsPath, contentType, body, &raw); err != nil {
		return types.Transcript{}, err
	}

	tr := types.Transcript{Segments: make([]types.Segment, 0, len(raw.Segments))}
	for _, s := range raw.Segments {
		tr.Segments = append(tr.Segments, types.Segment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}

func (a *Adapter) transcriptionForm(filename string, audio io.Reader) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	fields := [][2]string{
		{"model", a.transcribeModel},
		{"response_format", "verbose_json"},
	}
	if a.language != "" {
		fields = append(fields, [2]string{"language", a.language})
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (a *Adapter) Generate(ctx context.Context, msgs []types.Message) (string, error) {
	return a.client.Chat(ctx, chatPath, a.chatModel, msgs)
}
