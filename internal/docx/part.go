package docx

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// textNode is one w:t element, or a fixed w:tab/w:br/w:cr that contributes
// "\t" or "\n" to paragraph text but is never edited.
type textNode struct {
	elemStart    int
	elemEnd      int
	contentStart int
	text         string
	fixed        bool
	dirty        bool
}

// Paragraph is a w:p element. Its text is the concatenation of its own text
// nodes; paragraphs nested inside it (text boxes) own their text separately.
type Paragraph struct {
	nodes []*textNode
}

// Text returns the paragraph's visible text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, n := range p.nodes {
		sb.WriteString(n.text)
	}
	return sb.String()
}

// Replace substitutes every non-overlapping occurrence of old, scanning left
// to right over the original text, and returns how many it replaced. Runs
// keep their formatting: a match spanning several runs is written into the
// first run and removed from the rest.
func (p *Paragraph) Replace(old, new string) int {
	if old == "" || len(p.nodes) == 0 {
		return 0
	}
	text := p.Text()

	var matches []int
	for i := 0; i <= len(text)-len(old); {
		j := strings.Index(text[i:], old)
		if j < 0 {
			break
		}
		matches = append(matches, i+j)
		i += j + len(old)
	}
	if len(matches) == 0 {
		return 0
	}

	// Node bounds are taken from the original text; editing right to left
	// keeps every earlier bound valid.
	offsets := make([]int, len(p.nodes))
	ends := make([]int, len(p.nodes))
	pos := 0
	for i, n := range p.nodes {
		offsets[i] = pos
		pos += len(n.text)
		ends[i] = pos
	}

	replaced := 0
	for k := len(matches) - 1; k >= 0; k-- {
		if p.replaceAt(offsets, ends, matches[k], len(old), new) {
			replaced++
		}
	}
	return replaced
}

func (p *Paragraph) replaceAt(offsets, ends []int, at, length int, new string) bool {
	end := at + length
	first, last := -1, -1
	for i := range p.nodes {
		if ends[i] == offsets[i] {
			continue
		}
		if first < 0 && at < ends[i] {
			first = i
		}
		if end <= ends[i] {
			last = i
			break
		}
	}
	if first < 0 || last < 0 {
		return false
	}
	for i := first; i <= last; i++ {
		if p.nodes[i].fixed {
			return false
		}
	}

	head := p.nodes[first]
	if first == last {
		local := at - offsets[first]
		head.text = head.text[:local] + new + head.text[local+length:]
		head.dirty = true
		return true
	}

	head.text = head.text[:at-offsets[first]] + new
	head.dirty = true
	for i := first + 1; i < last; i++ {
		if p.nodes[i].text != "" {
			p.nodes[i].text = ""
			p.nodes[i].dirty = true
		}
	}
	tail := p.nodes[last]
	tail.text = tail.text[end-offsets[last]:]
	tail.dirty = true
	return true
}

// Table is a w:tbl element.
type Table struct {
	Rows []*Row
}

type Row struct {
	Cells []*Cell
}

// Cell holds the paragraphs and nested tables of a w:tc element.
type Cell struct {
	Paragraphs []*Paragraph
	Tables     []*Table
}

// Part is one parsed XML part: the main document, a header or a footer.
type Part struct {
	Name string

	data       []byte
	prefix     string
	paragraphs []*Paragraph
	tables     []*Table
	all        []*Paragraph
	nodes      []*textNode
	sections   []sectionRefs
}

// Paragraphs returns the paragraphs outside any table, in document order.
func (p *Part) Paragraphs() []*Paragraph {
	return p.paragraphs
}

// Tables returns the top-level tables.
func (p *Part) Tables() []*Table {
	return p.tables
}

// AllParagraphs returns every paragraph in the part, tables included.
func (p *Part) AllParagraphs() []*Paragraph {
	return p.all
}

// Text joins all paragraph texts with newlines.
func (p *Part) Text() string {
	texts := make([]string, len(p.all))
	for i, para := range p.all {
		texts[i] = para.Text()
	}
	return strings.Join(texts, "\n")
}

// Modified reports whether any text node was changed.
func (p *Part) Modified() bool {
	for _, n := range p.nodes {
		if n.dirty {
			return true
		}
	}
	return false
}

func (p *Part) qname(local string) string {
	if p.prefix == "" {
		return local
	}
	return p.prefix + ":" + local
}

// Bytes renders the part, rewriting only the changed text elements.
func (p *Part) Bytes() []byte {
	if !p.Modified() {
		return p.data
	}

	var buf bytes.Buffer
	buf.Grow(len(p.data) + 256)
	last := 0
	t := p.qname("t")
	for _, n := range p.nodes {
		if !n.dirty {
			continue
		}
		buf.Write(p.data[last:n.elemStart])
		buf.WriteString("<" + t + ` xml:space="preserve">`)
		_ = xml.EscapeText(&buf, []byte(n.text))
		buf.WriteString("</" + t + ">")
		last = n.elemEnd
	}
	buf.Write(p.data[last:])
	return buf.Bytes()
}

// unescape decodes entity and character references in element content.
func unescape(raw []byte) string {
	if bytes.IndexByte(raw, '&') < 0 {
		return string(raw)
	}

	d := xml.NewDecoder(io.MultiReader(
		strings.NewReader("<t>"), bytes.NewReader(raw), strings.NewReader("</t>"),
	))
	d.Strict = false

	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			sb.Write(cd)
		}
	}
	return sb.String()
}
