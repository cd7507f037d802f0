package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"titles\": [\"Kirish\"]}\n```",
			expected: `{"titles": ["Kirish"]}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"titles\": []}\n```",
			expected: `{"titles": []}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n[\"a\", \"b\"]\n```",
			expected: `["a", "b"]`,
		},
		{
			name:     "plain object",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before object",
			input:    "Mana reja:\n{\"titles\": [\"Kirish\", \"Xulosa\"]}",
			expected: `{"titles": ["Kirish", "Xulosa"]}`,
		},
		{
			name:     "trailing text",
			input:    "{\"key\": \"value\"}\n\nYana savol bo'lsa yozing!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before array",
			input:    "Here are the items:\n[\"item1\", \"item2\"]",
			expected: `["item1", "item2"]`,
		},
		{
			name:     "escaped quotes",
			input:    `Result: {"message": "He said \"hi\" {x}"}`,
			expected: `{"message": "He said \"hi\" {x}"}`,
		},
		{
			name:     "no JSON at all",
			input:    "  Kirish, Asosiy qism, Xulosa  ",
			expected: "Kirish, Asosiy qism, Xulosa",
		},
		{
			name:     "unbalanced value left alone",
			input:    "Kirish {ochiq",
			expected: "Kirish {ochiq",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractJSONObject(`{"a": {"b": 1}} tail`))
	assert.Equal(t, `[[1, 2], [3]]`, extractJSONArray(`[[1, 2], [3]] tail`))
	assert.Equal(t, "", extractJSONObject("not json"))
	assert.Equal(t, "", extractJSONArray(""))
	assert.Equal(t, "", extractJSONArray("[1, 2"))
}
