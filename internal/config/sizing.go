package config

import "github.com/jonathan/referat-bot/internal/generation"

// SizingConfig tunes the section planner. Zero values keep the built-in
// thresholds.
type SizingConfig struct {
	PagesPerChapter     float64  `json:"pages_per_chapter,omitempty" validate:"gte=0"`
	MinChapters         int      `json:"min_chapters,omitempty" validate:"gte=0"`
	MinOutlineEntries   int      `json:"min_outline_entries,omitempty" validate:"gte=0"`
	MinSlideTitleLen    int      `json:"min_slide_title_len,omitempty" validate:"gte=0"`
	MinDocumentTitleLen int      `json:"min_document_title_len,omitempty" validate:"gte=0"`
	MinOverrideTitleLen int      `json:"min_override_title_len,omitempty" validate:"gte=0"`
	SlideWords          int      `json:"slide_words,omitempty" validate:"gte=0"`
	ChapterWords        int      `json:"chapter_words,omitempty" validate:"gte=0"`
	Placeholder         string   `json:"placeholder,omitempty"`
	FallbackOutline     []string `json:"fallback_outline,omitempty"`
	// StructuredOutline is a pointer so the file can turn JSON mode off
	StructuredOutline *bool `json:"structured_outline,omitempty"`
}

// PlannerSizing returns the planner thresholds: built-in defaults with the
// configured values and section_concurrency applied
func (c *Config) PlannerSizing() generation.Sizing {
	s := generation.DefaultSizing()
	sc := c.Sizing

	if sc.PagesPerChapter > 0 {
		s.PagesPerChapter = sc.PagesPerChapter
	}
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setInt(&s.MinChapters, sc.MinChapters)
	setInt(&s.MinOutlineEntries, sc.MinOutlineEntries)
	setInt(&s.MinSlideTitleLen, sc.MinSlideTitleLen)
	setInt(&s.MinDocumentTitleLen, sc.MinDocumentTitleLen)
	setInt(&s.MinOverrideTitleLen, sc.MinOverrideTitleLen)
	setInt(&s.SlideWords, sc.SlideWords)
	setInt(&s.ChapterWords, sc.ChapterWords)
	setInt(&s.Concurrency, c.SectionConcurrency)

	if sc.Placeholder != "" {
		s.Placeholder = sc.Placeholder
	}
	if len(sc.FallbackOutline) > 0 {
		s.FallbackOutline = append([]string(nil), sc.FallbackOutline...)
	}
	if sc.StructuredOutline != nil {
		s.StructuredOutline = *sc.StructuredOutline
	}
	return s
}
