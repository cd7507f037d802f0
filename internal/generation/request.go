// Package generation turns a topic into an ordered list of titled sections.
// It asks the completion client for an outline, then expands every outline
// entry into body text, reporting progress along the way.
package generation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind selects the prompt family and sizing rules
type Kind string

const (
	// KindSlides produces one short bulleted section per slide
	KindSlides Kind = "slides"
	// KindDocument produces long-form chapters
	KindDocument Kind = "document"
)

// Section is one titled block of generated text
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Request describes one generation
type Request struct {
	Topic string `validate:"required"`
	// Size is the slide count for slides and the page count for documents.
	Size int  `validate:"gt=0"`
	Kind Kind `validate:"required,oneof=slides document"`
	// Outline is an optional user-supplied outline. Empty or "-" means none.
	Outline  string
	Progress ProgressSink `validate:"-"`
}

var validate = validator.New()

// Validate checks the request fields
func (r Request) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid generation request: %w", err)
	}
	return nil
}

// HasOverride reports whether the caller supplied its own outline
func (r Request) HasOverride() bool {
	o := strings.TrimSpace(r.Outline)
	return o != "" && o != "-"
}
