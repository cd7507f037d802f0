package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/referat-bot/internal/llm"
	"github.com/jonathan/referat-bot/internal/prompts"
)

// ErrEmptyOutline is returned when neither the planning call nor the
// fallback outline produced a single entry
var ErrEmptyOutline = errors.New("outline has no usable entries")

// Completer is the completion client the planner depends on
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts llm.Options) llm.Result
}

// OutlineSource records where the outline came from
type OutlineSource string

const (
	OutlineFromOverride OutlineSource = "override"
	OutlineFromLLM      OutlineSource = "llm"
	OutlineFallback     OutlineSource = "fallback"
)

// Hooks observe planner decisions, e.g. for metrics. Nil fields are skipped.
type Hooks struct {
	OnOutline func(kind Kind, source OutlineSource, entries int)
	OnSection func(kind Kind, generated bool)
}

// Planner builds an outline and expands it section by section
type Planner struct {
	client Completer
	sizing Sizing
	hooks  Hooks

	system string
}

// Prompt keys in prompts.Generation
const (
	promptSystem          = "system"
	promptOutlineSlides   = "outline-slides"
	promptOutlineDocument = "outline-document"
	promptExpandSlide     = "expand-slide"
	promptExpandChapter   = "expand-chapter"
)

// Option configures a Planner
type Option func(*Planner)

// WithSizing overrides the default thresholds
func WithSizing(s Sizing) Option {
	return func(p *Planner) { p.sizing = s }
}

// WithHooks registers observation callbacks
func WithHooks(h Hooks) Option {
	return func(p *Planner) { p.hooks = h }
}

// NewPlanner creates a planner around a completion client
func NewPlanner(client Completer, opts ...Option) *Planner {
	for _, key := range []string{promptOutlineSlides, promptOutlineDocument, promptExpandSlide, promptExpandChapter} {
		prompts.MustGet(prompts.Generation, key)
	}
	p := &Planner{
		client: client,
		sizing: DefaultSizing(),
		system: prompts.MustGet(prompts.Generation, promptSystem),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sizing returns the thresholds in use
func (p *Planner) Sizing() Sizing {
	return p.sizing
}

// Generate produces one section per outline entry, in outline order.
// Upstream failures never surface as errors: a failed planning call falls
// back to a fixed outline and a failed expansion becomes a placeholder.
// The error is non-nil only for an invalid request, an empty outline, or a
// cancelled ctx; in the last case the partial sections are returned too.
func (p *Planner) Generate(ctx context.Context, req Request) ([]Section, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	titles, _ := p.Outline(ctx, req)
	if len(titles) == 0 {
		return nil, ErrEmptyOutline
	}

	var sections []Section
	if p.sizing.Concurrency > 1 {
		sections = p.expandParallel(ctx, req, titles)
	} else {
		sections = p.expandSequential(ctx, req, titles)
	}

	if err := ctx.Err(); err != nil {
		return sections, err
	}
	req.Progress.report(100, "Tayyor!")
	return sections, nil
}

// Outline settles the outline for a request: the override when usable,
// otherwise one planning call, otherwise the fallback outline.
func (p *Planner) Outline(ctx context.Context, req Request) ([]string, OutlineSource) {
	n := p.sizing.OutlineCount(req.Kind, req.Size)
	minLen := p.sizing.MinTitleLen(req.Kind)
	start := p.sizing.StartPercent(req.Kind)

	req.Progress.report(start, "Reja tuzilmoqda...")

	var titles []string
	source := OutlineFromOverride
	if req.HasOverride() {
		titles = SplitOverride(req.Outline, p.sizing.MinOverrideTitleLen)
		if len(titles) > n {
			titles = titles[:n]
		}
	}

	if len(titles) == 0 {
		source = OutlineFromLLM
		messages, err := p.outlineMessages(req, n)
		if err != nil {
			log.Printf("[GEN] outline prompt: %v", err)
		} else if res := p.client.Complete(ctx, messages, llm.Options{JSON: p.sizing.StructuredOutline}); res.OK {
			titles = ParseOutline(res.Text, minLen, n).Titles
		}
		if len(titles) < min(p.sizing.MinOutlineEntries, n) {
			log.Printf("[GEN] outline for %q unusable (%d entries), using fallback", req.Topic, len(titles))
			source = OutlineFallback
			titles = p.sizing.fallback()
		}
	}

	if p.hooks.OnOutline != nil {
		p.hooks.OnOutline(req.Kind, source, len(titles))
	}
	req.Progress.report(start, fmt.Sprintf("Reja tayyor: %d ta bo'lim", len(titles)))
	return titles, source
}

func (p *Planner) expandSequential(ctx context.Context, req Request, titles []string) []Section {
	sections := make([]Section, len(titles))
	for i, title := range titles {
		if ctx.Err() != nil {
			sections[i] = Section{Title: title, Content: p.sizing.Placeholder}
			continue
		}
		req.Progress.report(p.sizing.Percent(req.Kind, i, len(titles)), "Yozilmoqda: "+title)
		sections[i] = Section{Title: title, Content: p.expand(ctx, req, title)}
	}
	return sections
}

func (p *Planner) expandParallel(ctx context.Context, req Request, titles []string) []Section {
	sections := make([]Section, len(titles))

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(p.sizing.Concurrency)
	for i, title := range titles {
		g.Go(func() error {
			content := p.sizing.Placeholder
			if ctx.Err() == nil {
				content = p.expand(ctx, req, title)
			}
			sections[i] = Section{Title: title, Content: content}

			mu.Lock()
			defer mu.Unlock()
			done++
			req.Progress.report(
				p.sizing.Percent(req.Kind, done, len(titles)),
				fmt.Sprintf("%d / %d bo'lim tayyor", done, len(titles)),
			)
			return nil
		})
	}
	_ = g.Wait()
	return sections
}

func (p *Planner) expand(ctx context.Context, req Request, title string) string {
	key := promptExpandChapter
	if req.Kind == KindSlides {
		key = promptExpandSlide
	}
	prompt, err := prompts.Render(prompts.Generation, key, map[string]string{
		"Topic": req.Topic,
		"Title": title,
		"Words": strconv.Itoa(p.sizing.Words(req.Kind)),
	})
	if err != nil {
		log.Printf("[GEN] section %q: %v", title, err)
		return p.sizing.Placeholder
	}

	res := p.client.Complete(ctx, []llm.Message{llm.SystemMessage(p.system), llm.UserMessage(prompt)}, llm.Options{})
	if p.hooks.OnSection != nil {
		p.hooks.OnSection(req.Kind, res.OK)
	}
	if !res.OK {
		log.Printf("[GEN] section %q failed, using placeholder", title)
		return p.sizing.Placeholder
	}
	return res.Text
}

func (p *Planner) outlineMessages(req Request, n int) ([]llm.Message, error) {
	key := promptOutlineDocument
	if req.Kind == KindSlides {
		key = promptOutlineSlides
	}
	prompt, err := prompts.Render(prompts.Generation, key, map[string]string{
		"Topic": req.Topic,
		"Count": strconv.Itoa(n),
	})
	if err != nil {
		return nil, err
	}
	return []llm.Message{llm.SystemMessage(p.system), llm.UserMessage(prompt)}, nil
}
