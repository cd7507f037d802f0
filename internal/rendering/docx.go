package rendering

import (
	"fmt"
	"strings"

	"github.com/jonathan/referat-bot/internal/generation"
)

// Lengths in twentieths of a point; font sizes in half-points.
const (
	twipsPerCm = 567

	docxFont       = "Times New Roman"
	docxBodySize   = 28 // 14pt
	docxHeadSize   = 32 // 16pt
	docxTitleSize  = 48 // 24pt
	docxInstSize   = 24 // 12pt
	docxLineAuto   = 276
	docxAfterBody  = 200
	docxAfterHead  = 240
	docxFirstLine  = 720 // 1.27cm
	docxSignIndent = 9 * twipsPerCm
)

const docxNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

var docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles ` + docxNS + `>` +
	`<w:docDefaults><w:rPrDefault><w:rPr>` +
	`<w:rFonts w:ascii="` + docxFont + `" w:eastAsia="` + docxFont + `" w:hAnsi="` + docxFont + `" w:cs="` + docxFont + `"/>` +
	fmt.Sprintf(`<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, docxBodySize, docxBodySize) +
	`<w:lang w:val="uz-Latn-UZ"/>` +
	`</w:rPr></w:rPrDefault><w:pPrDefault/></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`</w:styles>`

// A4 with 2cm top/bottom, 3cm left and 1.5cm right margins
var docxSection = fmt.Sprintf(
	`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
	2*twipsPerCm, 850, 2*twipsPerCm, 3*twipsPerCm,
)

type docxPara struct {
	align     string
	indent    int
	firstLine int
	after     int
	line      int
	size      int
	runs      []docxRun
}

type docxRun struct {
	text      string
	bold      bool
	lineBreak bool
	pageBreak bool
}

type docxBuilder struct {
	sb strings.Builder
}

func (b *docxBuilder) para(p docxPara) {
	b.sb.WriteString("<w:p>")
	if p.align != "" || p.indent > 0 || p.firstLine > 0 || p.after > 0 || p.line > 0 {
		b.sb.WriteString("<w:pPr>")
		if p.after > 0 || p.line > 0 {
			b.sb.WriteString("<w:spacing")
			if p.after > 0 {
				fmt.Fprintf(&b.sb, ` w:after="%d"`, p.after)
			}
			if p.line > 0 {
				fmt.Fprintf(&b.sb, ` w:line="%d" w:lineRule="auto"`, p.line)
			}
			b.sb.WriteString("/>")
		}
		if p.indent > 0 || p.firstLine > 0 {
			b.sb.WriteString("<w:ind")
			if p.indent > 0 {
				fmt.Fprintf(&b.sb, ` w:left="%d"`, p.indent)
			}
			if p.firstLine > 0 {
				fmt.Fprintf(&b.sb, ` w:firstLine="%d"`, p.firstLine)
			}
			b.sb.WriteString("/>")
		}
		if p.align != "" {
			fmt.Fprintf(&b.sb, `<w:jc w:val="%s"/>`, p.align)
		}
		b.sb.WriteString("</w:pPr>")
	}

	size := p.size
	if size == 0 {
		size = docxBodySize
	}
	for _, r := range p.runs {
		b.run(r, size)
	}
	b.sb.WriteString("</w:p>")
}

func (b *docxBuilder) run(r docxRun, size int) {
	b.sb.WriteString("<w:r><w:rPr>")
	fmt.Fprintf(&b.sb, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`, docxFont)
	if r.bold {
		b.sb.WriteString("<w:b/><w:bCs/>")
	}
	fmt.Fprintf(&b.sb, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, size, size)
	b.sb.WriteString("</w:rPr>")
	switch {
	case r.pageBreak:
		b.sb.WriteString(`<w:br w:type="page"/>`)
	case r.lineBreak:
		b.sb.WriteString(`<w:t xml:space="preserve">` + EscapeXML(r.text) + `</w:t><w:br/>`)
	default:
		b.sb.WriteString(`<w:t xml:space="preserve">` + EscapeXML(r.text) + `</w:t>`)
	}
	b.sb.WriteString("</w:r>")
}

func (b *docxBuilder) blank(n int) {
	for i := 0; i < n; i++ {
		b.sb.WriteString("<w:p/>")
	}
}

func (b *docxBuilder) centered(text string, size int, bold bool) {
	b.para(docxPara{align: "center", size: size, runs: []docxRun{{text: text, bold: bold}}})
}

// RenderDOCX writes sections as a Word document with a title page
func RenderDOCX(sections []generation.Section, info TitleInfo, docTitle string) ([]byte, error) {
	var b docxBuilder

	b.blank(4)
	b.centered(Ministry, docxBodySize, true)
	if filled(info.EduPlace) {
		b.centered(strings.ToUpper(info.EduPlace), docxInstSize, true)
	}
	b.blank(5)
	b.centered(strings.ToUpper(docTitle), docxTitleSize, true)
	b.centered("Mavzu: "+info.Topic, docxHeadSize, true)
	b.blank(6)

	sign := docxPara{indent: docxSignIndent}
	for _, f := range info.signature() {
		sign.runs = append(sign.runs, docxRun{text: f.Label + ": " + f.Value, bold: f.Bold, lineBreak: true})
	}
	b.para(sign)
	b.para(docxPara{runs: []docxRun{{pageBreak: true}}})

	for _, sec := range sections {
		b.para(docxPara{
			align: "center",
			after: docxAfterHead,
			size:  docxHeadSize,
			runs:  []docxRun{{text: sec.Title, bold: true}},
		})

		content := sec.Content
		if len(strings.TrimSpace(content)) < 10 {
			content = NotFound
		}
		for _, line := range Paragraphs(content, 3) {
			p := docxPara{
				align:     "both",
				firstLine: docxFirstLine,
				after:     docxAfterBody,
				line:      docxLineAuto,
			}
			for _, r := range SplitBold(line) {
				p.runs = append(p.runs, docxRun{text: r.Text, bold: r.Bold})
			}
			b.para(p)
		}
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + docxNS + `><w:body>` + b.sb.String() + docxSection + `</w:body></w:document>`

	data, err := writePackage([]packagePart{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRootRels},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/styles.xml", docxStyles},
		{"word/document.xml", document},
	})
	if err != nil {
		return nil, &RenderError{Format: FormatDOCX, Message: "failed to write package", Cause: err}
	}
	return data, nil
}
