package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// WriteTranscriptDocx writes a document with the title, the summary (when
// present) and one paragraph per transcript line.
func WriteTranscriptDocx(path, title, summary, transcript string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new docx: %w", err)
	}

	addRun(doc.AddParagraph(""), title, true, 16)

	if s := strings.TrimSpace(summary); s != "" {
		addRun(doc.AddParagraph(""), "Summary", true, 14)
		addRun(doc.AddParagraph(""), s, false, fontSize)
	}

	addRun(doc.AddParagraph(""), "Transcript", true, 14)
	for _, line := range strings.Split(strings.ReplaceAll(transcript, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		addRun(doc.AddParagraph(""), line, false, fontSize)
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}
	return nil
}

// TranscriptDocx renders the document in memory.
func TranscriptDocx(title, summary, transcript string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "vidsub-docx-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "transcript.docx")
	if err := WriteTranscriptDocx(path, title, summary, transcript); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
