package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	relTypeHeader = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeFooter = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	nsRelations   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	ctDocument = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctHeader   = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ctFooter   = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
)

type hfSpec struct {
	kind   HeaderKind
	footer bool
	xml    string
}

type sectionSpec struct {
	parts []hfSpec
}

// Builder assembles a minimal but valid .docx. Each paragraph is given as
// runs; a run may contain "\t", which becomes a w:tab.
type Builder struct {
	body     []string
	sections []*sectionSpec
}

func NewBuilder() *Builder {
	return &Builder{sections: []*sectionSpec{{}}}
}

func (b *Builder) current() *sectionSpec {
	return b.sections[len(b.sections)-1]
}

// Paragraph appends a body paragraph made of the given runs.
func (b *Builder) Paragraph(runs ...string) *Builder {
	b.body = append(b.body, paragraphXML(runs))
	return b
}

// Table appends a table; each cell holds one paragraph with one run.
func (b *Builder) Table(rows [][]string) *Builder {
	b.body = append(b.body, tableXML(rows))
	return b
}

// NestedTable appends a one-cell table whose cell contains inner.
func (b *Builder) NestedTable(inner [][]string) *Builder {
	b.body = append(b.body, "<w:tbl><w:tr><w:tc>"+tableXML(inner)+"<w:p/></w:tc></w:tr></w:tbl>")
	return b
}

// Header sets the current section's header of the given kind.
func (b *Builder) Header(kind HeaderKind, runs ...string) *Builder {
	b.current().parts = append(b.current().parts, hfSpec{kind: kind, xml: paragraphXML(runs)})
	return b
}

// Footer sets the current section's footer of the given kind.
func (b *Builder) Footer(kind HeaderKind, runs ...string) *Builder {
	b.current().parts = append(b.current().parts, hfSpec{kind: kind, footer: true, xml: paragraphXML(runs)})
	return b
}

// NewSection ends the current section at this point of the body.
func (b *Builder) NewSection() *Builder {
	b.body = append(b.body, "\x00section")
	b.sections = append(b.sections, &sectionSpec{})
	return b
}

func runXML(text string) string {
	var sb strings.Builder
	sb.WriteString("<w:r>")
	for i, piece := range strings.Split(text, "\t") {
		if i > 0 {
			sb.WriteString("<w:tab/>")
		}
		if piece == "" {
			continue
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(&sb, []byte(piece))
		sb.WriteString("</w:t>")
	}
	sb.WriteString("</w:r>")
	return sb.String()
}

func paragraphXML(runs []string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, r := range runs {
		sb.WriteString(runXML(r))
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

func tableXML(rows [][]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc>")
			sb.WriteString(paragraphXML([]string{cell}))
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

const rootAttrs = `xmlns:w="` + wordprocessingNS + `" xmlns:r="` + nsRelations + `"`

// Bytes renders the package.
func (b *Builder) Bytes() ([]byte, error) {
	type partFile struct {
		name, rid, relType, contentType, xml string
	}

	var parts []partFile
	sectXML := make([]string, len(b.sections))
	for si, sec := range b.sections {
		var refs strings.Builder
		titlePg := false
		for _, hf := range sec.parts {
			n := len(parts) + 1
			rid := fmt.Sprintf("rId%d", n+10)
			if hf.footer {
				parts = append(parts, partFile{
					name:        fmt.Sprintf("word/footer%d.xml", n),
					rid:         rid,
					relType:     relTypeFooter,
					contentType: ctFooter,
					xml:         xml.Header + "<w:ftr " + rootAttrs + ">" + hf.xml + "</w:ftr>",
				})
				fmt.Fprintf(&refs, `<w:footerReference w:type="%s" r:id="%s"/>`, hf.kind, rid)
			} else {
				parts = append(parts, partFile{
					name:        fmt.Sprintf("word/header%d.xml", n),
					rid:         rid,
					relType:     relTypeHeader,
					contentType: ctHeader,
					xml:         xml.Header + "<w:hdr " + rootAttrs + ">" + hf.xml + "</w:hdr>",
				})
				fmt.Fprintf(&refs, `<w:headerReference w:type="%s" r:id="%s"/>`, hf.kind, rid)
			}
			if hf.kind == HeaderFirst {
				titlePg = true
			}
		}
		if titlePg {
			refs.WriteString("<w:titlePg/>")
		}
		sectXML[si] = "<w:sectPr>" + refs.String() + `<w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`
	}

	var body strings.Builder
	si := 0
	for _, el := range b.body {
		if el == "\x00section" {
			body.WriteString("<w:p><w:pPr>" + sectXML[si] + "</w:pPr></w:p>")
			si++
			continue
		}
		body.WriteString(el)
	}
	body.WriteString(sectXML[len(sectXML)-1])

	document := xml.Header + "<w:document " + rootAttrs + "><w:body>" + body.String() + "</w:body></w:document>"

	var ct strings.Builder
	ct.WriteString(xml.Header)
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	fmt.Fprintf(&ct, `<Override PartName="/word/document.xml" ContentType="%s"/>`, ctDocument)
	for _, p := range parts {
		fmt.Fprintf(&ct, `<Override PartName="/%s" ContentType="%s"/>`, p.name, p.contentType)
	}
	ct.WriteString(`</Types>`)

	rootRels := xml.Header +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="` + relTypeOfficeDocument + `" Target="word/document.xml"/>` +
		`</Relationships>`

	var docRels strings.Builder
	docRels.WriteString(xml.Header)
	docRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, p := range parts {
		fmt.Fprintf(&docRels, `<Relationship Id="%s" Type="%s" Target="%s"/>`, p.rid, p.relType, strings.TrimPrefix(p.name, "word/"))
	}
	docRels.WriteString(`</Relationships>`)

	files := []struct{ name, body string }{
		{"[Content_Types].xml", ct.String()},
		{"_rels/.rels", rootRels},
		{"word/document.xml", document},
		{"word/_rels/document.xml.rels", docRels.String()},
	}
	for _, p := range parts {
		files = append(files, struct{ name, body string }{p.name, p.xml})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the built package to filename.
func (b *Builder) Save(filename string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return WriteFileAtomic(filename, data)
}
