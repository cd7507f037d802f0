package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/referat-bot/internal/llm"
)

// stubCompleter answers planning calls with outline and expansion calls
// with "Text about <title>", unless the title is listed in fail.
type stubCompleter struct {
	outline     string
	outlineFail bool
	fail        map[string]bool

	mu    sync.Mutex
	calls [][]llm.Message
	opts  []llm.Options
}

func (s *stubCompleter) Complete(_ context.Context, messages []llm.Message, opts llm.Options) llm.Result {
	s.mu.Lock()
	s.calls = append(s.calls, messages)
	s.opts = append(s.opts, opts)
	s.mu.Unlock()

	prompt := messages[len(messages)-1].Content
	title, isExpand := expandTitle(prompt)
	if !isExpand {
		if s.outlineFail {
			return llm.Result{Attempts: 4}
		}
		return llm.Result{Text: s.outline, OK: true, Attempts: 1}
	}
	if s.fail[title] {
		return llm.Result{Attempts: 4}
	}
	return llm.Result{Text: "Text about " + title, OK: true, Attempts: 1}
}

func expandTitle(prompt string) (string, bool) {
	for _, marker := range []string{"Bob: ", "Slayd: "} {
		if idx := strings.Index(prompt, marker); idx >= 0 {
			rest := prompt[idx+len(marker):]
			return rest[:strings.Index(rest, ". ")], true
		}
	}
	return "", false
}

type progressRecorder struct {
	mu       sync.Mutex
	percents []int
	messages []string
}

func (r *progressRecorder) sink() ProgressSink {
	return func(percent int, message string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.percents = append(r.percents, percent)
		r.messages = append(r.messages, message)
		return nil
	}
}

func TestGenerate_PhotosynthesisDocument(t *testing.T) {
	stub := &stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}
	planner := NewPlanner(stub)

	sections, err := planner.Generate(context.Background(), Request{
		Topic: "Photosynthesis",
		Size:  20,
		Kind:  KindDocument,
	})

	require.NoError(t, err)
	assert.Equal(t, []Section{
		{Title: "Introduction", Content: "Text about Introduction"},
		{Title: "Mechanism", Content: "Text about Mechanism"},
		{Title: "Applications", Content: "Text about Applications"},
		{Title: "Conclusion", Content: "Text about Conclusion"},
	}, sections)

	// one planning call + one per section
	require.Len(t, stub.calls, 5)
	assert.Contains(t, stub.calls[0][1].Content, "8 ta bob nomi")
	assert.True(t, stub.opts[0].JSON)
	assert.False(t, stub.opts[1].JSON)
	assert.Equal(t, llm.RoleSystem, stub.calls[1][0].Role)
	assert.Contains(t, stub.calls[1][1].Content, "1000 so'zli")
}

func TestGenerate_JSONOutline(t *testing.T) {
	stub := &stubCompleter{outline: "```json\n{\"titles\": [\"Kirish qismi\", \"Tarixiy asoslar\", \"Xulosa va takliflar\"]}\n```"}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "Tarix", Size: 10, Kind: KindDocument})

	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, "Tarixiy asoslar", sections[1].Title)
}

func TestGenerate_EmptyOutlineUsesFallback(t *testing.T) {
	stub := &stubCompleter{outline: ""}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "AI", Size: 10, Kind: KindSlides})

	require.NoError(t, err)
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	assert.Equal(t, DefaultSizing().FallbackOutline, titles)
}

func TestGenerate_FailedOutlineCallUsesFallback(t *testing.T) {
	stub := &stubCompleter{outlineFail: true}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "AI", Size: 15, Kind: KindDocument})

	require.NoError(t, err)
	assert.Len(t, sections, 3)
	assert.Equal(t, "Kirish", sections[0].Title)
}

func TestGenerate_TooFewEntriesUsesFallback(t *testing.T) {
	stub := &stubCompleter{outline: "Birinchi sarlavha, Ikkinchi sarlavha"}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "AI", Size: 10, Kind: KindSlides})

	require.NoError(t, err)
	assert.Len(t, sections, 3)
	assert.Equal(t, "Asosiy qism", sections[1].Title)
}

func TestGenerate_FailedSectionGetsPlaceholder(t *testing.T) {
	stub := &stubCompleter{
		outline: "Introduction, Mechanism, Applications, Conclusion",
		fail:    map[string]bool{"Mechanism": true},
	}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "Photosynthesis", Size: 20, Kind: KindDocument})

	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, "...", sections[1].Content)
	assert.Equal(t, "Mechanism", sections[1].Title)
	assert.Equal(t, "Text about Introduction", sections[0].Content)
	assert.Equal(t, "Text about Applications", sections[2].Content)
	assert.Equal(t, "Text about Conclusion", sections[3].Content)
}

func TestGenerate_SlidesTruncatedToSize(t *testing.T) {
	stub := &stubCompleter{outline: "1. Kirish\n2. Tarix\n3. Turlari\n4. Afzalliklar\n5. Xulosa"}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "Quyosh", Size: 4, Kind: KindSlides})

	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, "Kirish", sections[0].Title)
	assert.Equal(t, "Afzalliklar", sections[3].Title)
	assert.Contains(t, stub.calls[1][1].Content, "200 so'zli")
}

func TestGenerate_OverrideSkipsPlanningCall(t *testing.T) {
	stub := &stubCompleter{outline: "should not be used"}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{
		Topic:   "Iqtisod",
		Size:    10,
		Kind:    KindSlides,
		Outline: "Bozor tushunchasi\nTalab va taklif",
	})

	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Bozor tushunchasi", sections[0].Title)
	// only expansion calls
	assert.Len(t, stub.calls, 2)
}

func TestGenerate_DocumentOverrideKeepsShortTitles(t *testing.T) {
	stub := &stubCompleter{outline: "should not be used"}
	entries := []string{"Kirish", "Tarix", "Omon", "Xulosa"}

	sections, err := NewPlanner(stub).Generate(context.Background(), Request{
		Topic:   "Vatan",
		Size:    20,
		Kind:    KindDocument,
		Outline: strings.Join(entries, "\n"),
	})

	require.NoError(t, err)
	require.Len(t, sections, len(entries))
	for i, want := range entries {
		assert.Equal(t, want, sections[i].Title)
		assert.Equal(t, "Text about "+want, sections[i].Content)
	}
	assert.Len(t, stub.calls, len(entries))
}

func TestOutline_OverrideThresholdIndependentOfKind(t *testing.T) {
	planner := NewPlanner(&stubCompleter{})
	for _, kind := range []Kind{KindSlides, KindDocument} {
		titles, source := planner.Outline(context.Background(), Request{
			Topic:   "Vatan",
			Size:    20,
			Kind:    kind,
			Outline: "Tarix, Omon, Ona, Xulosa",
		})
		assert.Equal(t, OutlineFromOverride, source, kind)
		assert.Equal(t, []string{"Tarix", "Omon", "Xulosa"}, titles, kind)
	}
}

func TestGenerate_DashMeansNoOverride(t *testing.T) {
	stub := &stubCompleter{outline: "Kirish qismi, Asosiy bo'lim, Xulosa qismi"}
	sections, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "X", Size: 10, Kind: KindDocument, Outline: " - "})

	require.NoError(t, err)
	assert.Len(t, sections, 3)
	assert.Len(t, stub.calls, 4)
}

func TestGenerate_ProgressIsMonotonic(t *testing.T) {
	stub := &stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}
	rec := &progressRecorder{}

	_, err := NewPlanner(stub).Generate(context.Background(), Request{
		Topic: "Photosynthesis", Size: 20, Kind: KindDocument, Progress: rec.sink(),
	})

	require.NoError(t, err)
	// outline phase + one per section + final
	assert.GreaterOrEqual(t, len(rec.percents), 1+4)
	for i := 1; i < len(rec.percents); i++ {
		assert.GreaterOrEqual(t, rec.percents[i], rec.percents[i-1])
	}
	assert.Equal(t, 5, rec.percents[0])
	assert.Equal(t, 100, rec.percents[len(rec.percents)-1])
	assert.Contains(t, rec.messages, "Yozilmoqda: Mechanism")
}

func TestGenerate_FailingProgressSinkIgnored(t *testing.T) {
	stub := &stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}

	for name, sink := range map[string]ProgressSink{
		"error": func(int, string) error { return errors.New("message not modified") },
		"panic": func(int, string) error { panic("telegram down") },
	} {
		t.Run(name, func(t *testing.T) {
			var sections []Section
			var err error
			require.NotPanics(t, func() {
				sections, err = NewPlanner(stub).Generate(context.Background(), Request{
					Topic: "Photosynthesis", Size: 20, Kind: KindDocument, Progress: sink,
				})
			})
			require.NoError(t, err)
			assert.Len(t, sections, 4)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	req := Request{Topic: "Photosynthesis", Size: 20, Kind: KindDocument}

	first, err := NewPlanner(&stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}).Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := NewPlanner(&stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}).Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_Parallel(t *testing.T) {
	stub := &stubCompleter{
		outline: "Introduction, Mechanism, Applications, Conclusion",
		fail:    map[string]bool{"Applications": true},
	}
	sizing := DefaultSizing()
	sizing.Concurrency = 3
	rec := &progressRecorder{}

	sections, err := NewPlanner(stub, WithSizing(sizing)).Generate(context.Background(), Request{
		Topic: "Photosynthesis", Size: 20, Kind: KindDocument, Progress: rec.sink(),
	})

	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, "Introduction", sections[0].Title)
	assert.Equal(t, "Text about Mechanism", sections[1].Content)
	assert.Equal(t, "...", sections[2].Content)
	for i := 1; i < len(rec.percents); i++ {
		assert.GreaterOrEqual(t, rec.percents[i], rec.percents[i-1])
	}
	assert.Contains(t, rec.messages, "4 / 4 bo'lim tayyor")
}

func TestGenerate_CancelledContext(t *testing.T) {
	stub := &stubCompleter{outline: "Introduction, Mechanism, Applications, Conclusion"}
	ctx, cancel := context.WithCancel(context.Background())

	sink := ProgressSink(func(_ int, message string) error {
		if message == "Yozilmoqda: Mechanism" {
			cancel()
		}
		return nil
	})
	sections, err := NewPlanner(stub).Generate(ctx, Request{
		Topic: "Photosynthesis", Size: 20, Kind: KindDocument, Progress: sink,
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, sections, 4)
	assert.Equal(t, "Text about Introduction", sections[0].Content)
	assert.Equal(t, "...", sections[2].Content)
	assert.Equal(t, "...", sections[3].Content)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	stub := &stubCompleter{}
	_, err := NewPlanner(stub).Generate(context.Background(), Request{Topic: "  ", Size: 10, Kind: KindSlides})

	assert.Error(t, err)
	assert.Empty(t, stub.calls)
}

func TestGenerate_EmptyFallbackIsFatal(t *testing.T) {
	sizing := DefaultSizing()
	sizing.FallbackOutline = nil

	_, err := NewPlanner(&stubCompleter{}, WithSizing(sizing)).Generate(context.Background(), Request{Topic: "AI", Size: 10, Kind: KindSlides})

	assert.ErrorIs(t, err, ErrEmptyOutline)
}

func TestGenerate_Hooks(t *testing.T) {
	stub := &stubCompleter{outline: "", fail: map[string]bool{"Xulosa": true}}
	var source OutlineSource
	generated, failed := 0, 0

	_, err := NewPlanner(stub, WithHooks(Hooks{
		OnOutline: func(_ Kind, s OutlineSource, _ int) { source = s },
		OnSection: func(_ Kind, ok bool) {
			if ok {
				generated++
			} else {
				failed++
			}
		},
	})).Generate(context.Background(), Request{Topic: "AI", Size: 10, Kind: KindSlides})

	require.NoError(t, err)
	assert.Equal(t, OutlineFallback, source)
	assert.Equal(t, 2, generated)
	assert.Equal(t, 1, failed)
}
