package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBold(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Run
	}{
		{"plain", "oddiy matn", []Run{{Text: "oddiy matn"}}},
		{"single bold", "**Fotosintez** jarayoni", []Run{{Text: "Fotosintez", Bold: true}, {Text: " jarayoni"}}},
		{"multiple", "a **b** c **d**", []Run{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c "}, {Text: "d", Bold: true}}},
		{"unpaired marker kept", "a **b", []Run{{Text: "a **b"}}},
		{"empty bold dropped", "a **** b", []Run{{Text: "a "}, {Text: " b"}}},
		{"empty line", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitBold(tt.line))
		})
	}
}

func TestParagraphs(t *testing.T) {
	content := "Birinchi xatboshi\n\n  \nabc\n  Ikkinchi xatboshi  "
	assert.Equal(t, []string{"Birinchi xatboshi", "Ikkinchi xatboshi"}, Paragraphs(content, 3))
	assert.Empty(t, Paragraphs("...", 3))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Asosiy tushuncha va misol", PlainText("**Asosiy** tushuncha va **misol**"))
}
