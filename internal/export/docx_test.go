package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func documentXML(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("open docx zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		x, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(x)
	}
	t.Fatalf("word/document.xml not found")
	return ""
}

func TestTranscriptDocx_ContainsText(t *testing.T) {
	b, err := TranscriptDocx("talk", "A short talk.", "Hello there\r\n\nGeneral Kenobi\n")
	if err != nil {
		t.Fatalf("docx: %v", err)
	}
	x := documentXML(t, b)
	for _, want := range []string{"talk", "A short talk.", "Hello there", "General Kenobi"} {
		if !strings.Contains(x, want) {
			t.Fatalf("document.xml missing %q", want)
		}
	}
}

func TestWriteTranscriptDocx_NoSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	if err := WriteTranscriptDocx(path, "clip", "  ", "line"); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(documentXML(t, b), "Summary") {
		t.Fatalf("expected no summary heading")
	}
}
