package generation

// Sizing holds the tunable thresholds of the planner
type Sizing struct {
	// PagesPerChapter converts a page count into a chapter count.
	PagesPerChapter float64
	// MinChapters is the lower bound on document chapters.
	MinChapters int
	// Outline fragments this many runes long or shorter are dropped.
	MinSlideTitleLen    int
	MinDocumentTitleLen int
	// MinOverrideTitleLen applies to a user-supplied outline of either kind.
	MinOverrideTitleLen int
	// MinOutlineEntries is the fewest parsed entries accepted before the
	// fallback outline is used.
	MinOutlineEntries int

	SlidesStartPercent   int
	DocumentStartPercent int
	// ExpansionSpan is spread linearly over the expansion phase.
	ExpansionSpan int

	SlideWords   int
	ChapterWords int

	Placeholder     string
	FallbackOutline []string

	// StructuredOutline requests a JSON object from the planning call.
	StructuredOutline bool
	// Concurrency > 1 expands sections in parallel.
	Concurrency int
}

// DefaultSizing returns the thresholds used by the bot
func DefaultSizing() Sizing {
	return Sizing{
		PagesPerChapter:      2.5,
		MinChapters:          4,
		MinSlideTitleLen:     3,
		MinDocumentTitleLen:  5,
		MinOverrideTitleLen:  3,
		MinOutlineEntries:    3,
		SlidesStartPercent:   10,
		DocumentStartPercent: 5,
		ExpansionSpan:        90,
		SlideWords:           200,
		ChapterWords:         1000,
		Placeholder:          "...",
		FallbackOutline:      []string{"Kirish", "Asosiy qism", "Xulosa"},
		StructuredOutline:    true,
		Concurrency:          1,
	}
}

// OutlineCount returns how many outline entries a request asks for
func (s Sizing) OutlineCount(kind Kind, size int) int {
	if kind == KindSlides {
		return size
	}
	n := int(float64(size) / s.PagesPerChapter)
	if n < s.MinChapters {
		return s.MinChapters
	}
	return n
}

// MinTitleLen returns the fragment length threshold for a kind
func (s Sizing) MinTitleLen(kind Kind) int {
	if kind == KindSlides {
		return s.MinSlideTitleLen
	}
	return s.MinDocumentTitleLen
}

// StartPercent is reported while the outline is being built
func (s Sizing) StartPercent(kind Kind) int {
	if kind == KindSlides {
		return s.SlidesStartPercent
	}
	return s.DocumentStartPercent
}

// Percent interpolates progress for entry i of n
func (s Sizing) Percent(kind Kind, i, n int) int {
	start := s.StartPercent(kind)
	if n <= 0 {
		return start
	}
	p := start + i*s.ExpansionSpan/n
	if p > 100 {
		return 100
	}
	return p
}

// Words is the target length of one expanded section
func (s Sizing) Words(kind Kind) int {
	if kind == KindSlides {
		return s.SlideWords
	}
	return s.ChapterWords
}

// fallback returns a copy of the fallback outline
func (s Sizing) fallback() []string {
	return append([]string(nil), s.FallbackOutline...)
}
