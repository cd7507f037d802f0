package rendering

import (
	"regexp"
	"strings"
)

// Run is a span of text with uniform weight
type Run struct {
	Text string
	Bold bool
}

var boldSpan = regexp.MustCompile(`\*\*(.*?)\*\*`)

// SplitBold splits a line into runs on **bold** delimiters. Unpaired
// markers are kept as literal text. Empty runs are omitted.
func SplitBold(line string) []Run {
	var runs []Run
	last := 0
	for _, m := range boldSpan.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			runs = append(runs, Run{Text: line[last:m[0]]})
		}
		if m[3] > m[2] {
			runs = append(runs, Run{Text: line[m[2]:m[3]], Bold: true})
		}
		last = m[1]
	}
	if last < len(line) {
		runs = append(runs, Run{Text: line[last:]})
	}
	return runs
}

// Paragraphs splits content into trimmed lines longer than minLen bytes.
func Paragraphs(content string, minLen int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > minLen {
			out = append(out, line)
		}
	}
	return out
}

// PlainText removes bold markers from a line
func PlainText(line string) string {
	var sb strings.Builder
	for _, r := range SplitBold(line) {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
