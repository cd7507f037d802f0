package rendering

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/referat-bot/internal/generation"
)

// Format is an output file format
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPPTX, FormatDOCX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want pptx, docx or pdf)", s)
	}
}

// Job is one render request
type Job struct {
	Format   Format
	Sections []generation.Section
	Info     TitleInfo
	// DocTitle is the document type printed on the title page, e.g. "Referat".
	DocTitle string
	// Theme applies to PPTX only.
	Theme string
}

// File is a rendered document ready to send
type File struct {
	Name  string
	Ext   Format
	Bytes []byte
}

// Renderer dispatches jobs to the format writers
type Renderer struct {
	PDFTimeout time.Duration
}

// NewRenderer creates a renderer with a 60 second PDF print timeout
func NewRenderer() *Renderer {
	return &Renderer{PDFTimeout: 60 * time.Second}
}

// Render produces the file for a job
func (r *Renderer) Render(ctx context.Context, job Job) (*File, error) {
	var (
		data []byte
		err  error
	)
	switch job.Format {
	case FormatPPTX:
		data, err = RenderPPTX(job.Sections, job.Info, job.Theme)
	case FormatDOCX:
		data, err = RenderDOCX(job.Sections, job.Info, job.DocTitle)
	case FormatPDF:
		data, err = RenderPDF(ctx, job.Sections, job.Info, job.DocTitle, r.PDFTimeout)
	default:
		return nil, &RenderError{Format: job.Format, Message: "unsupported format"}
	}
	if err != nil {
		return nil, err
	}

	return &File{
		Name:  FileName(job.Info.Topic, job.Format),
		Ext:   job.Format,
		Bytes: data,
	}, nil
}

// FileName builds the attachment name from the first 15 characters of the topic
func FileName(topic string, format Format) string {
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) > 15 {
		topic = string([]rune(topic)[:15])
	}
	topic = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			return '_'
		}
		return r
	}, strings.TrimSpace(topic))
	if topic == "" {
		topic = "hujjat"
	}
	return topic + "." + string(format)
}
