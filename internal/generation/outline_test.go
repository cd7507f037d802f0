package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutline(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		minLen int
		limit  int
		want   []string
	}{
		{
			name:   "comma separated",
			text:   "Introduction, Mechanism, Applications, Conclusion",
			minLen: 5,
			want:   []string{"Introduction", "Mechanism", "Applications", "Conclusion"},
		},
		{
			name:   "numbered lines",
			text:   "1. Kirish\n2) Tarixi\n- Turlari\n* Xulosa\n• Manbalar",
			minLen: 3,
			want:   []string{"Kirish", "Tarixi", "Turlari", "Xulosa", "Manbalar"},
		},
		{
			name:   "short fragments dropped",
			text:   "Kirish, a, abc, Asosiy qism",
			minLen: 3,
			want:   []string{"Kirish", "Asosiy qism"},
		},
		{
			name:   "length counted in runes",
			text:   "Ўзбекистон, Тарих",
			minLen: 5,
			want:   []string{"Ўзбекистон"},
		},
		{
			name:   "bold markers and quotes stripped",
			text:   "**Kirish**\n\"Asosiy qism\"",
			minLen: 3,
			want:   []string{"Kirish", "Asosiy qism"},
		},
		{
			name:   "truncated to limit",
			text:   "Birinchi, Ikkinchi, Uchinchi, To'rtinchi",
			minLen: 3,
			limit:  2,
			want:   []string{"Birinchi", "Ikkinchi"},
		},
		{
			name:   "json object",
			text:   `{"titles": ["Kirish", "Asosiy qism", "Xulosa"]}`,
			minLen: 3,
			want:   []string{"Kirish", "Asosiy qism", "Xulosa"},
		},
		{
			name:   "fenced json with commas inside titles",
			text:   "```json\n{\"titles\": [\"Kirish, maqsad\", \"Xulosa\"]}\n```",
			minLen: 3,
			want:   []string{"Kirish, maqsad", "Xulosa"},
		},
		{
			name:   "bare json array",
			text:   `["1. Kirish", "2. Xulosa"]`,
			minLen: 3,
			want:   []string{"Kirish", "Xulosa"},
		},
		{
			name:   "duplicates kept",
			text:   "Kirish, Kirish",
			minLen: 3,
			want:   []string{"Kirish", "Kirish"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseOutline(tt.text, tt.minLen, tt.limit)
			assert.True(t, res.OK)
			assert.Equal(t, tt.want, res.Titles)
		})
	}
}

func TestParseOutline_NoUsableEntries(t *testing.T) {
	for _, text := range []string{"", "   ", "a, b, c", `{"titles": []}`} {
		res := ParseOutline(text, 3, 0)
		assert.False(t, res.OK, text)
		assert.Empty(t, res.Titles, text)
	}
}

func TestSplitOverride(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lines", "Kirish\nNazariy asoslar\r\nXulosa", []string{"Kirish", "Nazariy asoslar", "Xulosa"}},
		{"single line commas", "Kirish, Nazariy asoslar, Xulosa", []string{"Kirish", "Nazariy asoslar", "Xulosa"}},
		{"lines keep commas", "Kirish, maqsad\nXulosa", []string{"Kirish, maqsad", "Xulosa"}},
		{"dash means none", "-", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitOverride(tt.text, 3)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
