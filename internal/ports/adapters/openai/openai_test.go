package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/forPelevin/vidsub/internal/types"
)

func TestTranscribe_VerboseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != transcriptionsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if _, fh, err := r.FormFile("file"); err != nil || fh.Filename != "a.mp3" {
			t.Errorf("file part: %v %v", fh, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Hello world","segments":[{"start":0,"end":2,"text":" Hello"},{"start":2,"end":4,"text":" world"}]}`))
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "a.mp3")
	if err := os.WriteFile(audio, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New(Options{APIKey: "k", BaseURL: srv.URL})
	tr, err := a.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	want := []types.Segment{{Start: 0, End: 2, Text: "Hello"}, {Start: 2, End: 4, Text: "world"}}
	if len(tr.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(tr.Segments))
	}
	for i := range want {
		if tr.Segments[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, tr.Segments[i], want[i])
		}
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	a := New(Options{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := a.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.mp3")); err == nil {
		t.Fatalf("expected error for missing audio file")
	}
}

func TestGenerate_UsesChatModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string          `json:"model"`
			Messages []types.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "gpt-4-turbo" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != types.RoleSystem {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	a := New(Options{APIKey: "k", BaseURL: srv.URL})
	got, err := a.Generate(context.Background(), []types.Message{
		{Role: types.RoleSystem, Content: "sys"},
		{Role: types.RoleUser, Content: "user"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q", got)
	}
}
