package generation

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/referat-bot/internal/llm"
	"github.com/jonathan/referat-bot/internal/schemas"
)

// OutlineResult is the outcome of parsing a planning response
type OutlineResult struct {
	Titles []string
	OK     bool
}

var (
	outlineSplit = regexp.MustCompile(`[,\n]`)
	overrideLine = regexp.MustCompile(`\r?\n`)
	listMarker   = regexp.MustCompile(`^(?:\d+\s*[.)]|[-*•–])\s*`)
)

// ParseOutline extracts titles from a planning response. JSON
// ({"titles": [...]} or a bare array, possibly fenced) is tried first, then
// the text is split on commas and newlines. Titles of minLen runes or fewer
// are dropped, order is kept and limit > 0 truncates the list.
func ParseOutline(text string, minLen, limit int) OutlineResult {
	text = strings.TrimSpace(text)
	if text == "" {
		return OutlineResult{}
	}

	titles, ok := parseJSONOutline(text)
	if !ok {
		titles = outlineSplit.Split(stripFence(text), -1)
	}

	return OutlineResult{Titles: filterTitles(titles, minLen, limit)}.settle()
}

// SplitOverride turns a user-supplied outline into titles. Lines are
// preferred; a single line is split on commas.
func SplitOverride(text string, minLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return nil
	}
	parts := overrideLine.Split(text, -1)
	if len(parts) == 1 {
		parts = strings.Split(text, ",")
	}
	return filterTitles(parts, minLen, 0)
}

func (r OutlineResult) settle() OutlineResult {
	r.OK = len(r.Titles) > 0
	return r
}

func parseJSONOutline(text string) ([]string, bool) {
	cleaned := llm.CleanJSONBlock(text)
	if cleaned == "" || !json.Valid([]byte(cleaned)) {
		return nil, false
	}

	switch cleaned[0] {
	case '{':
		if err := schemas.ValidateJSONString(schemas.OutlineSchema(), cleaned); err != nil {
			return nil, false
		}
		var doc struct {
			Titles []string `json:"titles"`
		}
		if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
			return nil, false
		}
		return doc.Titles, true
	case '[':
		var titles []string
		if err := json.Unmarshal([]byte(cleaned), &titles); err != nil {
			return nil, false
		}
		return titles, true
	}
	return nil, false
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return text
}

func filterTitles(parts []string, minLen, limit int) []string {
	titles := make([]string, 0, len(parts))
	for _, p := range parts {
		t := cleanTitle(p)
		if utf8.RuneCountInString(t) <= minLen {
			continue
		}
		titles = append(titles, t)
		if limit > 0 && len(titles) == limit {
			break
		}
	}
	return titles
}

func cleanTitle(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.TrimSpace(s)
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t\"'`“”«»")
	return strings.TrimSpace(s)
}
