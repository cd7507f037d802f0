package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/referat-bot/internal/generation"
)

func TestPrintOutline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOutline([]string{"Kirish", "Asosiy qism", "Xulosa"}, generation.OutlineFallback)
	output := buf.String()

	assert.Contains(t, output, "OUTLINE")
	assert.Contains(t, output, "fallback")
	assert.Contains(t, output, " 2. Asosiy qism")
}

func TestPrintSections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSections([]generation.Section{
		{Title: "Kirish", Content: strings.Repeat("uzun matn ", 50)},
		{Title: "Xulosa", Content: "..."},
	})
	output := buf.String()

	assert.Contains(t, output, "SECTIONS (2)")
	assert.Contains(t, output, "1. Kirish (500 chars)")
	assert.Contains(t, output, "2. Xulosa (3 chars)")
}

func TestPrintSections_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSections(nil)

	assert.Contains(t, buf.String(), "(none)")
}

func TestPrintBox_LinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "qisqa\nЎзбекистон Республикаси Олий таълим, фан ва инновациялар вазирлиги")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for _, line := range lines {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult("run-1", "Fotosintez.docx", 1024, 1500*time.Millisecond)

	output := buf.String()
	assert.Contains(t, output, "run-1")
	assert.Contains(t, output, "Fotosintez.docx")
	assert.Contains(t, output, "1.5s")
}
