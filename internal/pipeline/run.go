// Package pipeline provides the high-level orchestration for document generation:
// plan and write the sections, then render them to a file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/rendering"
)

// Step names reported in progress events
const (
	StepGenerate = "generate"
	StepRender   = "render"
	StepDone     = "done"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	RunID   string `json:"run_id,omitempty"`
	Step    string `json:"step"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs. A returned error
// is logged and otherwise ignored.
type ProgressCallback func(event ProgressEvent) error

// Options holds configuration for one pipeline run
type Options struct {
	// Request.Progress, when set, receives generation progress alongside
	// OnProgress
	Request generation.Request
	Format  rendering.Format
	// Theme applies to slides only
	Theme string
	// DocTitle is the document type on the title page ("Referat", "Mustaqil ish")
	DocTitle   string
	Info       rendering.TitleInfo
	OnProgress ProgressCallback
	Verbose    bool
	// Printer is used in verbose mode; defaults to stdout
	Printer *observability.Printer
}

// Result is the outcome of a successful run
type Result struct {
	RunID    uuid.UUID
	Sections []generation.Section
	File     *rendering.File
	Duration time.Duration
}

// Runner wires the planner to the renderer
type Runner struct {
	planner  *generation.Planner
	renderer *rendering.Renderer
}

// NewRunner creates a runner
func NewRunner(planner *generation.Planner, renderer *rendering.Renderer) *Runner {
	return &Runner{planner: planner, renderer: renderer}
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *Options, runID uuid.UUID, step string, percent int, message string) error {
	if opts.OnProgress == nil {
		return nil
	}
	return opts.OnProgress(ProgressEvent{
		RunID:   runID.String(),
		Step:    step,
		Percent: percent,
		Message: message,
	})
}

// Run generates the sections for opts.Request and renders them in opts.Format.
// It fails only on an invalid request, a cancelled context, or a render error;
// upstream completion failures are absorbed by the planner.
func (r *Runner) Run(ctx context.Context, opts Options) (result *Result, err error) {
	start := time.Now()
	runID := uuid.New()
	kind := string(opts.Request.Kind)

	defer func() {
		observability.GenerationDuration.WithLabelValues(kind, observability.StatusLabel(err)).
			Observe(time.Since(start).Seconds())
	}()

	if opts.Format == "" {
		opts.Format = DefaultFormat(opts.Request.Kind)
	}
	if opts.Info.Topic == "" {
		opts.Info.Topic = opts.Request.Topic
	}
	printer := opts.Printer
	if printer == nil {
		printer = observability.NewPrinter(os.Stdout)
	}

	req := opts.Request
	callerSink := opts.Request.Progress
	req.Progress = func(percent int, message string) error {
		if callerSink != nil {
			if err := callerSink(percent, message); err != nil {
				log.Printf("[PIPELINE] request progress sink failed: %v", err)
			}
		}
		return emitProgress(&opts, runID, StepGenerate, percent, message)
	}

	log.Printf("[PIPELINE] run %s: %s %q, size %d, %s", runID, kind, req.Topic, req.Size, opts.Format)

	sections, err := r.planner.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("[PIPELINE] run %s cancelled after %d sections", runID, len(sections))
		}
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	log.Printf("[PIPELINE] run %s: %d sections generated", runID, len(sections))
	if opts.Verbose {
		printer.PrintSections(sections)
	}

	if perr := emitProgress(&opts, runID, StepRender, 100, "Fayl tayyorlanmoqda..."); perr != nil {
		log.Printf("[PIPELINE] progress callback failed: %v", perr)
	}

	renderStart := time.Now()
	file, err := r.renderer.Render(ctx, rendering.Job{
		Format:   opts.Format,
		Sections: sections,
		Info:     opts.Info,
		DocTitle: opts.DocTitle,
		Theme:    opts.Theme,
	})
	observability.RenderDuration.WithLabelValues(string(opts.Format)).Observe(time.Since(renderStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("rendering failed: %w", err)
	}

	result = &Result{
		RunID:    runID,
		Sections: sections,
		File:     file,
		Duration: time.Since(start),
	}
	if opts.Verbose {
		printer.PrintResult(runID.String(), file.Name, len(file.Bytes), result.Duration)
	}
	if perr := emitProgress(&opts, runID, StepDone, 100, "Tayyor!"); perr != nil {
		log.Printf("[PIPELINE] progress callback failed: %v", perr)
	}

	log.Printf("[PIPELINE] run %s finished in %s (%d bytes)", runID, result.Duration.Round(time.Millisecond), len(file.Bytes))
	return result, nil
}

// DefaultFormat is PPTX for slides and DOCX for documents
func DefaultFormat(kind generation.Kind) rendering.Format {
	if kind == generation.KindSlides {
		return rendering.FormatPPTX
	}
	return rendering.FormatDOCX
}
