package subtitles

import (
	"fmt"
	"strings"
	"time"
)

// ComposeASS renders entries as an Advanced SubStation Alpha script, for players
// and burn-in filters that prefer styled subtitles.
func ComposeASS(entries []Entry) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, e := range entries {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(e.Start))
		b.WriteString(",")
		b.WriteString(assTime(e.End))
		b.WriteString(",Default,,0,0,0,,")
		b.WriteString(sanitizeASS(legalText(e.Text)))
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default, Arial, 56, &H00FFFFFF, &H000000FF, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,3,1,2, 60,60,50,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, "\n", "\\N")
}
