package subtitles

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/vidsub/internal/types"
)

var ErrLineCountMismatch = errors.New("transcript line count does not match segment count")

type Entry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// LineCountMismatchError reports an edited transcript that no longer pairs 1:1
// with the timed segments.
type LineCountMismatchError struct {
	Lines    int
	Segments int
}

func (e *LineCountMismatchError) Error() string {
	return fmt.Sprintf("%v: transcript has %d lines, transcription has %d segments", ErrLineCountMismatch, e.Lines, e.Segments)
}

func (e *LineCountMismatchError) Is(target error) bool { return target == ErrLineCountMismatch }

// SplitLines splits transcript text into lines. CRLF is normalized and trailing
// newlines are ignored so a final Enter in an editor does not add a line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// BuildEntries pairs line i of the transcript with segment i.
func BuildEntries(segs []types.Segment, transcript string) ([]Entry, error) {
	lines := SplitLines(transcript)
	if len(lines) != len(segs) {
		return nil, &LineCountMismatchError{Lines: len(lines), Segments: len(segs)}
	}
	out := make([]Entry, 0, len(segs))
	for i, s := range segs {
		out = append(out, Entry{
			Index: i + 1,
			Start: Seconds(s.Start),
			End:   Seconds(s.End),
			Text:  lines[i],
		})
	}
	return out, nil
}

// Seconds converts API seconds to a duration rounded to the microsecond.
func Seconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec*1e6)) * time.Microsecond
}

func Compose(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(strconv.Itoa(e.Index))
		b.WriteByte('\n')
		b.WriteString(srtTime(e.Start))
		b.WriteString(" --> ")
		b.WriteString(srtTime(e.End))
		b.WriteByte('\n')
		b.WriteString(legalText(e.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// legalText drops blank lines, which would otherwise end the block early.
func legalText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.Join(kept, "\n")
}

func srtTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int64(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int64(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int64(d / time.Second)
	d -= time.Duration(s) * time.Second
	milli := int64(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hs, ms, s, milli)
}

// Parse reads an SRT document. It accepts CRLF, a UTF-8 BOM and '.' as the
// millisecond separator.
func Parse(doc string) ([]Entry, error) {
	doc = strings.TrimPrefix(doc, "\uFEFF")
	doc = strings.ReplaceAll(doc, "\r\n", "\n")

	var out []Entry
	for n, block := range splitBlocks(doc) {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("srt block %d: expected index and timing lines", n+1)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("srt block %d: bad index %q", n+1, lines[0])
		}
		start, end, err := parseTiming(lines[1])
		if err != nil {
			return nil, fmt.Errorf("srt block %d: %w", n+1, err)
		}
		out = append(out, Entry{
			Index: idx,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return out, nil
}

func splitBlocks(doc string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, ln := range strings.Split(doc, "\n") {
		if strings.TrimSpace(ln) == "" {
			flush()
			continue
		}
		cur = append(cur, ln)
	}
	flush()
	return blocks
}

func parseTiming(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad timing line %q", line)
	}
	start, err := parseSRTTime(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Position hints may follow the end time.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("bad timing line %q", line)
	}
	end, err := parseSRTTime(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseSRTTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, ".", ",", 1)
	hms, msPart, ok := strings.Cut(s, ",")
	if !ok {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	fields := strings.Split(hms, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	var vals [4]int64
	for i, f := range append(fields, msPart) {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad timestamp %q", s)
		}
		vals[i] = v
	}
	return time.Duration(vals[0])*time.Hour +
		time.Duration(vals[1])*time.Minute +
		time.Duration(vals[2])*time.Second +
		time.Duration(vals[3])*time.Millisecond, nil
}
