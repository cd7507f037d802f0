package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/pipeline"
	"github.com/jonathan/referat-bot/internal/rendering"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate one document without Telegram",
	Long: `Plans, writes and renders a single presentation or document and saves it to disk.
No database or Telegram token is needed, only LLM credentials (GROQ_KEYS).

Examples:
  referat_bot generate --topic "Fotosintez" --kind slides --size 10 --theme dark
  referat_bot generate --topic "Iqtisodiyot" --kind document --size 20 --format pdf --out out/`,
	RunE: runGenerateCmd,
}

// generateInput holds the raw flag values
type generateInput struct {
	Topic     string
	Kind      string
	Size      int
	Outline   string
	Format    string
	Theme     string
	DocTitle  string
	Student   string
	EduPlace  string
	Direction string
	Group     string
	Subject   string
	Teacher   string
}

var (
	genConfigPath string
	genInput      generateInput
	genOut        string
	genVerbose    bool
)

func init() {
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file")
	generateCommand.Flags().StringVarP(&genInput.Topic, "topic", "t", "", "Topic (required)")
	generateCommand.Flags().StringVarP(&genInput.Kind, "kind", "k", string(generation.KindDocument), "slides or document")
	generateCommand.Flags().IntVarP(&genInput.Size, "size", "s", 0, "Slide count for slides, page count for documents (default 10 / 15)")
	generateCommand.Flags().StringVar(&genInput.Outline, "outline", "", "Outline to use instead of asking the model, one entry per line")
	generateCommand.Flags().StringVarP(&genInput.Format, "format", "f", "", "pptx, docx or pdf (default pptx for slides, docx for documents)")
	generateCommand.Flags().StringVar(&genInput.Theme, "theme", rendering.DefaultTheme, "Slide theme: blue, dark, green or orange")
	generateCommand.Flags().StringVar(&genInput.DocTitle, "doc-title", "Referat", "Document type on the title page")
	generateCommand.Flags().StringVar(&genInput.Student, "student", "", "Student name for the title page")
	generateCommand.Flags().StringVar(&genInput.EduPlace, "edu-place", "", "Institution for the title page")
	generateCommand.Flags().StringVar(&genInput.Direction, "direction", "", "Field of study for the title page")
	generateCommand.Flags().StringVar(&genInput.Group, "group", "", "Group for the title page")
	generateCommand.Flags().StringVar(&genInput.Subject, "subject", "", "Subject for the title page")
	generateCommand.Flags().StringVar(&genInput.Teacher, "teacher", "", "Teacher for the title page")
	generateCommand.Flags().StringVarP(&genOut, "out", "o", ".", "Output directory or file path")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print the outline and sections")

	rootCmd.AddCommand(generateCommand)
}

// buildGenerateOptions validates flag values and converts them to run options
func buildGenerateOptions(in generateInput) (pipeline.Options, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return pipeline.Options{}, fmt.Errorf("--topic is required")
	}

	kind := generation.Kind(strings.ToLower(strings.TrimSpace(in.Kind)))
	switch kind {
	case generation.KindSlides, generation.KindDocument:
	default:
		return pipeline.Options{}, fmt.Errorf("invalid --kind %q (want slides or document)", in.Kind)
	}

	size := in.Size
	if size == 0 {
		size = 15
		if kind == generation.KindSlides {
			size = 10
		}
	}
	if size < 0 {
		return pipeline.Options{}, fmt.Errorf("--size must be positive, got %d", size)
	}

	format := pipeline.DefaultFormat(kind)
	if in.Format != "" {
		f, err := rendering.ParseFormat(in.Format)
		if err != nil {
			return pipeline.Options{}, err
		}
		format = f
	}
	if kind == generation.KindSlides && format != rendering.FormatPPTX {
		return pipeline.Options{}, fmt.Errorf("slides can only be rendered as pptx")
	}
	if kind == generation.KindDocument && format == rendering.FormatPPTX {
		return pipeline.Options{}, fmt.Errorf("documents are rendered as docx or pdf")
	}

	return pipeline.Options{
		Request: generation.Request{
			Topic:   topic,
			Size:    size,
			Kind:    kind,
			Outline: in.Outline,
		},
		Format:   format,
		Theme:    rendering.LookupTheme(in.Theme).Name,
		DocTitle: in.DocTitle,
		Info: rendering.TitleInfo{
			Topic:     topic,
			Student:   in.Student,
			EduPlace:  in.EduPlace,
			Direction: in.Direction,
			Group:     in.Group,
			Subject:   in.Subject,
			Teacher:   in.Teacher,
		},
	}, nil
}

// outputPath puts the file inside out when out is a directory or has no
// extension, and uses out as is otherwise
func outputPath(out, fileName string) string {
	if out == "" {
		return fileName
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, fileName)
	}
	if filepath.Ext(out) == "" {
		return filepath.Join(out, fileName)
	}
	return out
}

func runGenerateCmd(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts, err := buildGenerateOptions(genInput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(genConfigPath, os.Getenv)
	if err != nil {
		return err
	}
	runner, release, err := buildRunner(cfg)
	if err != nil {
		return err
	}
	defer release()

	opts.Verbose = genVerbose
	opts.Printer = observability.NewPrinter(verboseOut)
	opts.OnProgress = func(event pipeline.ProgressEvent) error {
		_, err := fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", event.Percent, event.Message)
		return err
	}

	result, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}

	path := outputPath(genOut, result.File.Name)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, result.File.Bytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Saved %d sections to %s\n", len(result.Sections), path)
	return nil
}
