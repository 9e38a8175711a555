package types

import "time"

type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Lines returns the segment texts in order, one per line.
func (t Transcript) Lines() []string {
	out := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		out = append(out, s.Text)
	}
	return out
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type VideoAsset struct {
	Path     string `json:"path"`
	BaseName string `json:"base_name"`
	SHA256   string `json:"sha256"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
}

type AudioAsset struct {
	Path     string        `json:"path"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration,omitempty"`
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Artifact is a downloadable output of the workflow.
type Artifact struct {
	Name string
	MIME string
	Body []byte
}

type Manifest struct {
	Input     string          `json:"input"`
	SHA256    string          `json:"sha256"`
	CreatedAt time.Time       `json:"created_at"`
	Segments  int             `json:"segments"`
	Summary   string          `json:"summary,omitempty"`
	Files     []ManifestFile  `json:"files"`
	Errors    []ManifestError `json:"errors,omitempty"`
}

type ManifestFile struct {
	Kind string `json:"kind"`
	File string `json:"file"`
}

type ManifestError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}
