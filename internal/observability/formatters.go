// Package observability provides Prometheus metrics and formatted output
// for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/referat-bot/internal/generation"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// previewRunes is how much of each section body is shown
	previewRunes = 160
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintOutline outputs the settled outline
func (p *Printer) PrintOutline(titles []string, source generation.OutlineSource) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:   %s\n", source))
	sb.WriteString(fmt.Sprintf("Entries:  %d\n", len(titles)))
	sb.WriteString("\n")
	for i, t := range titles {
		sb.WriteString(fmt.Sprintf("%2d. %s\n", i+1, t))
	}
	p.printBox("OUTLINE", strings.TrimRight(sb.String(), "\n"))
}

// PrintSections outputs a short preview of every section
func (p *Printer) PrintSections(sections []generation.Section) {
	if len(sections) == 0 {
		p.printBox("SECTIONS", "(none)")
		return
	}

	var sb strings.Builder
	for i, s := range sections {
		sb.WriteString(fmt.Sprintf("%d. %s (%d chars)\n", i+1, s.Title, utf8.RuneCountInString(s.Content)))
		preview := strings.Join(strings.Fields(s.Content), " ")
		sb.WriteString("   " + truncate(preview, previewRunes) + "\n")
	}
	p.printBox(fmt.Sprintf("SECTIONS (%d)", len(sections)), strings.TrimRight(sb.String(), "\n"))
}

// PrintResult outputs the run summary
func (p *Printer) PrintResult(runID, fileName string, size int, duration time.Duration) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", runID))
	sb.WriteString(fmt.Sprintf("File:     %s\n", fileName))
	sb.WriteString(fmt.Sprintf("Size:     %d bytes\n", size))
	sb.WriteString(fmt.Sprintf("Duration: %s", duration.Round(time.Millisecond)))
	p.printBox("RESULT", sb.String())
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}
