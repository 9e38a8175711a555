package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "serve", "watch"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}
}

func TestRunCmd_RequiresInput(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without input")
	}
}

func TestRunCmd_RejectsUnsupportedInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "vidsub.yaml")
	if err := os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	root.SetArgs([]string{"run", "--config", cfgPath, in})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unsupported media type") {
		t.Fatalf("expected unsupported media error, got %v", err)
	}
}

func TestPromptAPIKey_FromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := w.WriteString("  sk-piped \n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	var out bytes.Buffer
	key, err := promptAPIKey(r, &out)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if key != "sk-piped" {
		t.Fatalf("unexpected key %q", key)
	}
	if !strings.Contains(out.String(), "OPENAI_API_KEY") {
		t.Fatalf("expected prompt text, got %q", out.String())
	}
}

func TestPromptAPIKey_Empty(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	w.Close()

	if _, err := promptAPIKey(r, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
