package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/rendering"
)

func TestBuildGenerateOptions(t *testing.T) {
	tests := []struct {
		name       string
		in         generateInput
		wantErr    string
		wantKind   generation.Kind
		wantSize   int
		wantFormat rendering.Format
	}{
		{
			name:    "missing topic",
			in:      generateInput{Topic: "  ", Kind: "slides"},
			wantErr: "--topic is required",
		},
		{
			name:    "unknown kind",
			in:      generateInput{Topic: "Fotosintez", Kind: "essay"},
			wantErr: "invalid --kind",
		},
		{
			name:       "slides defaults",
			in:         generateInput{Topic: "Fotosintez", Kind: "Slides"},
			wantKind:   generation.KindSlides,
			wantSize:   10,
			wantFormat: rendering.FormatPPTX,
		},
		{
			name:       "document defaults",
			in:         generateInput{Topic: "Iqtisodiyot", Kind: "document"},
			wantKind:   generation.KindDocument,
			wantSize:   15,
			wantFormat: rendering.FormatDOCX,
		},
		{
			name:       "document as pdf",
			in:         generateInput{Topic: "Iqtisodiyot", Kind: "document", Size: 25, Format: "PDF"},
			wantKind:   generation.KindDocument,
			wantSize:   25,
			wantFormat: rendering.FormatPDF,
		},
		{
			name:    "slides as docx",
			in:      generateInput{Topic: "Fotosintez", Kind: "slides", Format: "docx"},
			wantErr: "slides can only be rendered as pptx",
		},
		{
			name:    "document as pptx",
			in:      generateInput{Topic: "Fotosintez", Kind: "document", Format: "pptx"},
			wantErr: "docx or pdf",
		},
		{
			name:    "bad format",
			in:      generateInput{Topic: "Fotosintez", Kind: "document", Format: "odt"},
			wantErr: "unsupported format",
		},
		{
			name:    "negative size",
			in:      generateInput{Topic: "Fotosintez", Kind: "document", Size: -3},
			wantErr: "--size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := buildGenerateOptions(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, opts.Request.Kind)
			assert.Equal(t, tt.wantSize, opts.Request.Size)
			assert.Equal(t, tt.wantFormat, opts.Format)
		})
	}
}

func TestBuildGenerateOptions_TitleInfo(t *testing.T) {
	opts, err := buildGenerateOptions(generateInput{
		Topic:    " Fotosintez ",
		Kind:     "slides",
		Outline:  "Kirish\nAsosiy qism",
		Theme:    "neon",
		Student:  "Ali Valiyev",
		Subject:  "Biologiya",
		DocTitle: "Referat",
	})
	require.NoError(t, err)

	assert.Equal(t, "Fotosintez", opts.Request.Topic)
	assert.Equal(t, "Kirish\nAsosiy qism", opts.Request.Outline)
	assert.Equal(t, rendering.DefaultTheme, opts.Theme, "unknown themes fall back to the default")
	assert.Equal(t, "Fotosintez", opts.Info.Topic)
	assert.Equal(t, "Ali Valiyev", opts.Info.Student)
	assert.Equal(t, "Biologiya", opts.Info.Subject)
	assert.Equal(t, "Referat", opts.DocTitle)
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "a.docx", outputPath("", "a.docx"))
	assert.Equal(t, filepath.Join(dir, "a.docx"), outputPath(dir, "a.docx"))
	assert.Equal(t, filepath.Join(dir, "new", "a.docx"), outputPath(filepath.Join(dir, "new"), "a.docx"))
	assert.Equal(t, filepath.Join(dir, "custom.docx"), outputPath(filepath.Join(dir, "custom.docx"), "a.docx"))
}

func TestGenerateCommand_MissingTopic(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--kind", "slides")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--topic is required")
}

func TestGenerateCommand_MissingKeys(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--topic", "Fotosintez")
	cmd.Dir = t.TempDir()
	var env []string
	for _, e := range os.Environ() {
		if !hasAnyPrefix(e, "GROQ_KEYS=", "GEMINI_API_KEY=", "LLM_PROVIDER=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(output), "no LLM keys configured")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}
