package rendering

import (
	"fmt"
	"strings"

	"github.com/jonathan/referat-bot/internal/generation"
)

const (
	emuPerInch = 914400
	slideWidth = 10 * emuPerInch
	// 4:3 slide, 7.5 inches tall
	slideHeight = 6858000

	pptxFont = "Arial"
)

const pptxNS = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

const relsHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`

const relType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

const emptySpTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const pptxMaster = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster ` + pptxNS + `><p:cSld><p:spTree>` + emptySpTree + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const pptxMasterRels = relsHeader +
	`<Relationship Id="rId1" Type="` + relType + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relType + `theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const pptxLayout = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout ` + pptxNS + ` type="blank" preserve="1"><p:cSld name="Blank"><p:spTree>` + emptySpTree + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const pptxLayoutRels = relsHeader +
	`<Relationship Id="rId1" Type="` + relType + `slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const pptxSlideRels = relsHeader +
	`<Relationship Id="rId1" Type="` + relType + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`</Relationships>`

const pptxRootRels = relsHeader +
	`<Relationship Id="rId1" Type="` + relType + `officeDocument" Target="ppt/presentation.xml"/>` +
	`</Relationships>`

const pptxTheme = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme"><a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F497D"/></a:dk2><a:lt2><a:srgbClr val="EEECE1"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4F81BD"/></a:accent1><a:accent2><a:srgbClr val="C0504D"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="9BBB59"/></a:accent3><a:accent4><a:srgbClr val="8064A2"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="4BACC6"/></a:accent5><a:accent6><a:srgbClr val="F79646"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0000FF"/></a:hlink><a:folHlink><a:srgbClr val="800080"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office">` +
	`<a:majorFont><a:latin typeface="Arial"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Arial"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst>` + phFill + phFill + phFill + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` + phLine + phLine + phLine + `</a:lnStyleLst>` +
	`<a:effectStyleLst>` + noEffect + noEffect + noEffect + `</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + phFill + phFill + phFill + `</a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements></a:theme>`

const (
	phFill   = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	phLine   = `<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`
	noEffect = `<a:effectStyle><a:effectLst/></a:effectStyle>`
)

func inches(v float64) int {
	return int(v * emuPerInch)
}

type box struct {
	x, y, cx, cy int
}

func (b box) xfrm() string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, b.x, b.y, b.cx, b.cy)
}

type textRun struct {
	text string
	bold bool
}

type textPara struct {
	runs  []textRun
	size  int // points
	color string
	space bool
}

type slideBuilder struct {
	nextID int
	sb     strings.Builder
}

func newSlide() *slideBuilder {
	return &slideBuilder{nextID: 2}
}

func (s *slideBuilder) shape(preset, fill string, b box) {
	id := s.nextID
	s.nextID++
	fmt.Fprintf(&s.sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, id)
	s.sb.WriteString("<p:spPr>" + b.xfrm())
	fmt.Fprintf(&s.sb, `<a:prstGeom prst="%s"><a:avLst/></a:prstGeom>`, preset)
	fmt.Fprintf(&s.sb, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:ln><a:noFill/></a:ln>`, fill)
	s.sb.WriteString("</p:spPr></p:sp>")
}

func (s *slideBuilder) textBox(b box, paras []textPara) {
	id := s.nextID
	s.nextID++
	fmt.Fprintf(&s.sb, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, id)
	s.sb.WriteString("<p:spPr>" + b.xfrm() + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)
	s.sb.WriteString(`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	if len(paras) == 0 {
		s.sb.WriteString("<a:p/>")
	}
	for _, p := range paras {
		s.sb.WriteString("<a:p>")
		if p.space {
			s.sb.WriteString(`<a:pPr><a:lnSpc><a:spcPct val="100000"/></a:lnSpc><a:spcAft><a:spcPts val="600"/></a:spcAft></a:pPr>`)
		}
		for _, r := range p.runs {
			bold := ""
			if r.bold {
				bold = ` b="1"`
			}
			fmt.Fprintf(&s.sb, `<a:r><a:rPr lang="uz-Latn-UZ" sz="%d"%s dirty="0">`, p.size*100, bold)
			fmt.Fprintf(&s.sb, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/>`, p.color, pptxFont)
			s.sb.WriteString("</a:rPr><a:t>" + EscapeXML(r.text) + "</a:t></a:r>")
		}
		s.sb.WriteString("</a:p>")
	}
	s.sb.WriteString("</p:txBody></p:sp>")
}

func (s *slideBuilder) xml(background string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld ` + pptxNS + `><p:cSld>` +
		`<p:bg><p:bgPr><a:solidFill><a:srgbClr val="` + background + `"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + emptySpTree + s.sb.String() + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func titleSlide(info TitleInfo, th Theme) string {
	s := newSlide()
	s.shape("rect", th.Accent, box{0, 0, inches(2.5), slideHeight})
	s.shape(th.Shape, th.Title, box{inches(8.5), inches(0.5), inches(1), inches(1)})
	s.textBox(box{inches(3), inches(1), inches(6.5), inches(4)}, []textPara{{
		runs:  []textRun{{text: strings.ToUpper(info.Topic), bold: true}},
		size:  40,
		color: th.Title,
	}})

	var credits []textPara
	for _, line := range info.slideCredits() {
		credits = append(credits, textPara{runs: []textRun{{text: line}}, size: 18, color: th.Text})
	}
	s.textBox(box{inches(3), inches(5.5), inches(6.5), inches(2)}, credits)
	return s.xml(th.Background)
}

func sectionSlide(sec generation.Section, th Theme) string {
	s := newSlide()
	s.shape("rect", th.Accent, box{inches(0.5), inches(0.3), inches(9), inches(1)})

	title := sec.Title
	if strings.TrimSpace(title) == "" {
		title = "Mavzu"
	}
	s.textBox(box{inches(0.6), inches(0.4), inches(8.8), inches(0.8)}, []textPara{{
		runs:  []textRun{{text: title, bold: true}},
		size:  28,
		color: "FFFFFF",
	}})

	size := 14
	if len(sec.Content) >= 600 {
		size = 11
	}
	lines := Paragraphs(sec.Content, 3)
	if len(lines) == 0 {
		lines = []string{NotFound}
	}
	var body []textPara
	for _, line := range lines {
		p := textPara{size: size, color: th.Text, space: true}
		for _, r := range SplitBold("• " + line) {
			p.runs = append(p.runs, textRun{text: r.Text, bold: r.Bold})
		}
		body = append(body, p)
	}
	s.textBox(box{inches(0.5), inches(1.5), inches(9), inches(5.5)}, body)
	return s.xml(th.Background)
}

// RenderPPTX writes sections as a slide deck: one title slide and one slide
// per section.
func RenderPPTX(sections []generation.Section, info TitleInfo, theme string) ([]byte, error) {
	th := LookupTheme(theme)

	slides := []string{titleSlide(info, th)}
	for _, sec := range sections {
		slides = append(slides, sectionSlide(sec, th))
	}

	var types, presRels, sldIDs strings.Builder
	types.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	presRels.WriteString(relsHeader +
		`<Relationship Id="rId1" Type="` + relType + `slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
		`<Relationship Id="rId2" Type="` + relType + `theme" Target="theme/theme1.xml"/>`)

	parts := make([]packagePart, 0, 2*len(slides)+8)
	for i, slide := range slides {
		n := i + 1
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, n)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%sslide" Target="slides/slide%d.xml"/>`, n+2, relType, n)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n+2)
		parts = append(parts,
			packagePart{fmt.Sprintf("ppt/slides/slide%d.xml", n), slide},
			packagePart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), pptxSlideRels},
		)
	}
	types.WriteString(`</Types>`)
	presRels.WriteString(`</Relationships>`)

	presentation := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation ` + pptxNS + ` saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + sldIDs.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d" type="screen4x3"/>`, slideWidth, slideHeight) +
		`<p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

	parts = append([]packagePart{
		{"[Content_Types].xml", types.String()},
		{"_rels/.rels", pptxRootRels},
		{"ppt/presentation.xml", presentation},
		{"ppt/_rels/presentation.xml.rels", presRels.String()},
		{"ppt/slideMasters/slideMaster1.xml", pptxMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", pptxMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", pptxLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", pptxLayoutRels},
		{"ppt/theme/theme1.xml", pptxTheme},
	}, parts...)

	data, err := writePackage(parts)
	if err != nil {
		return nil, &RenderError{Format: FormatPPTX, Message: "failed to write package", Cause: err}
	}
	return data, nil
}
