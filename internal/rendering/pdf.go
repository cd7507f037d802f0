package rendering

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jonathan/referat-bot/internal/generation"
)

const pdfTemplate = `<!DOCTYPE html>
<html lang="uz">
<head>
<meta charset="utf-8">
<title>{{.Info.Topic}}</title>
<style>
@page { size: A4; margin: 2cm 1.5cm 2cm 3cm; }
body { font-family: "Times New Roman", Times, serif; font-size: 14pt; line-height: 1.15; }
.center { text-align: center; font-weight: bold; }
.ministry { margin-top: 4em; }
.inst { font-size: 12pt; }
.doctype { font-size: 24pt; margin-top: 5em; }
.topic { font-size: 16pt; }
.sign { margin-left: 9cm; margin-top: 6em; }
.sign b { font-weight: bold; }
.title-page { page-break-after: always; }
h2 { text-align: center; font-size: 16pt; margin: 0 0 12pt 0; }
p.body { text-align: justify; text-indent: 1.27cm; margin: 0 0 10pt 0; }
</style>
</head>
<body>
<div class="title-page">
<p class="center ministry">{{.Ministry}}</p>
{{if .EduPlace}}<p class="center inst">{{.EduPlace}}</p>{{end}}
<p class="center doctype">{{.DocTitle}}</p>
<p class="center topic">Mavzu: {{.Info.Topic}}</p>
<div class="sign">{{range .Signature}}{{if .Bold}}<b>{{.Label}}: {{.Value}}</b>{{else}}{{.Label}}: {{.Value}}{{end}}<br>{{end}}</div>
</div>
{{range .Sections}}<section>
<h2>{{.Title}}</h2>
{{range .Paragraphs}}<p class="body">{{range .}}{{if .Bold}}<strong>{{.Text}}</strong>{{else}}{{.Text}}{{end}}{{end}}</p>
{{end}}</section>
{{end}}</body>
</html>
`

var pdfTmpl = template.Must(template.New("pdf").Parse(pdfTemplate))

type pdfSection struct {
	Title      string
	Paragraphs [][]Run
}

type pdfData struct {
	Ministry  string
	EduPlace  string
	DocTitle  string
	Info      TitleInfo
	Signature []field
	Sections  []pdfSection
}

// BuildHTML renders the printable HTML used for PDF output
func BuildHTML(sections []generation.Section, info TitleInfo, docTitle string) (string, error) {
	data := pdfData{
		Ministry:  Ministry,
		DocTitle:  strings.ToUpper(docTitle),
		Info:      info,
		Signature: info.signature(),
	}
	if filled(info.EduPlace) {
		data.EduPlace = strings.ToUpper(info.EduPlace)
	}
	for _, sec := range sections {
		content := sec.Content
		if len(strings.TrimSpace(content)) < 10 {
			content = NotFound
		}
		ps := pdfSection{Title: sec.Title}
		for _, line := range Paragraphs(content, 3) {
			ps.Paragraphs = append(ps.Paragraphs, SplitBold(line))
		}
		data.Sections = append(data.Sections, ps)
	}

	var buf bytes.Buffer
	if err := pdfTmpl.Execute(&buf, data); err != nil {
		return "", &TemplateError{Message: "failed to execute PDF template", Cause: err}
	}
	return buf.String(), nil
}

// RenderPDF prints the document HTML to an A4 PDF with headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
func RenderPDF(ctx context.Context, sections []generation.Section, info TitleInfo, docTitle string, timeout time.Duration) ([]byte, error) {
	html, err := BuildHTML(sections, info, docTitle)
	if err != nil {
		return nil, err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if timeout > 0 {
		browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
		defer cancel()
	}

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, &RenderError{Format: FormatPDF, Message: "browser printing failed", Cause: err}
	}

	log.Printf("[RENDER] printed PDF: %d bytes", len(pdf))
	if len(pdf) == 0 {
		return nil, &RenderError{Format: FormatPDF, Message: fmt.Sprintf("empty PDF for %q", info.Topic)}
	}
	return pdf, nil
}
