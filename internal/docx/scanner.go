package docx

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var ErrInvalidDocument = errors.New("invalid docx document")

var (
	attrType  = regexp.MustCompile(`(?:^|\s)[\w.-]+:type\s*=\s*["']([^"']*)["']`)
	attrRelID = regexp.MustCompile(`(?:^|\s)[\w.-]+:id\s*=\s*["']([^"']*)["']`)
	attrVal   = regexp.MustCompile(`(?:^|\s)[\w.-]+:val\s*=\s*["']([^"']*)["']`)
	attrNS    = regexp.MustCompile(`xmlns(?::([\w.-]+))?\s*=\s*["']([^"']*)["']`)
)

// sectionRefs is what a w:sectPr declares; kind maps to relationship id.
type sectionRefs struct {
	headers   map[string]string
	footers   map[string]string
	titlePage bool
}

type frame struct {
	name    string
	local   string
	para    *Paragraph
	table   *Table
	row     *Row
	cell    *Cell
	node    *textNode
	section int // 1-based index into part.sections
}

type scanner struct {
	part     *Part
	stack    []frame
	rootSeen bool
}

// parsePart indexes paragraphs, tables, text nodes and section properties of
// an XML part without building a DOM, so untouched bytes round-trip exactly.
func parsePart(name string, data []byte) (*Part, error) {
	s := &scanner{part: &Part{Name: name, data: data, prefix: "w"}}
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, name, err)
	}
	return s.part, nil
}

func (s *scanner) run() error {
	data := s.part.data
	i := 0
	for i < len(data) {
		lt := bytes.IndexByte(data[i:], '<')
		if lt < 0 {
			break
		}
		start := i + lt
		rest := data[start:]

		switch {
		case bytes.HasPrefix(rest, []byte("<?")):
			end := bytes.Index(rest, []byte("?>"))
			if end < 0 {
				return errors.New("unterminated processing instruction")
			}
			i = start + end + 2
		case bytes.HasPrefix(rest, []byte("<!--")):
			end := bytes.Index(rest[4:], []byte("-->"))
			if end < 0 {
				return errors.New("unterminated comment")
			}
			i = start + 4 + end + 3
		case bytes.HasPrefix(rest, []byte("<![CDATA[")):
			end := bytes.Index(rest, []byte("]]>"))
			if end < 0 {
				return errors.New("unterminated CDATA section")
			}
			i = start + end + 3
		case bytes.HasPrefix(rest, []byte("<!")):
			end := bytes.IndexByte(rest, '>')
			if end < 0 {
				return errors.New("unterminated declaration")
			}
			i = start + end + 1
		case bytes.HasPrefix(rest, []byte("</")):
			end := bytes.IndexByte(rest, '>')
			if end < 0 {
				return errors.New("unterminated end tag")
			}
			name := string(bytes.TrimSpace(rest[2:end]))
			i = start + end + 1
			s.endElement(name, start, i)
		default:
			end, selfClosing, err := scanTag(data, start)
			if err != nil {
				return err
			}
			s.startElement(data[start:end], start, end, selfClosing)
			i = end
		}
	}

	for _, n := range s.part.nodes {
		if n.elemEnd == 0 {
			return errors.New("unterminated text element")
		}
	}
	return nil
}

// scanTag finds the end of the start tag at data[start], honoring quoted
// attribute values.
func scanTag(data []byte, start int) (end int, selfClosing bool, err error) {
	var quote byte
	for j := start + 1; j < len(data); j++ {
		c := data[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return j + 1, data[j-1] == '/', nil
		}
	}
	return 0, false, errors.New("unterminated start tag")
}

func tagName(tag []byte) string {
	j := 1
	for j < len(tag) {
		c := tag[j]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' || c == '>' {
			break
		}
		j++
	}
	return string(tag[1:j])
}

func splitName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// detectPrefix returns the prefix bound to the WordprocessingML namespace on
// the root element, "" for a default namespace, or "w" when undeclared.
func detectPrefix(tag []byte) string {
	for _, m := range attrNS.FindAllSubmatch(tag, -1) {
		if string(m[2]) == wordprocessingNS {
			return string(m[1])
		}
	}
	return "w"
}

func (s *scanner) startElement(tag []byte, start, end int, selfClosing bool) {
	name := tagName(tag)
	if !s.rootSeen {
		s.rootSeen = true
		s.part.prefix = detectPrefix(tag)
	}

	prefix, local := splitName(name)
	fr := frame{name: name}
	if prefix == s.part.prefix {
		fr.local = local
		s.handleWordElement(&fr, tag, start, end, selfClosing)
	}

	if !selfClosing {
		s.stack = append(s.stack, fr)
	}
}

func (s *scanner) handleWordElement(fr *frame, tag []byte, start, end int, selfClosing bool) {
	p := s.part

	switch fr.local {
	case "p":
		para := &Paragraph{}
		if cell := s.nearestCell(); cell != nil {
			cell.Paragraphs = append(cell.Paragraphs, para)
		} else {
			p.paragraphs = append(p.paragraphs, para)
		}
		p.all = append(p.all, para)
		fr.para = para

	case "tbl":
		t := &Table{}
		if cell := s.nearestCell(); cell != nil {
			cell.Tables = append(cell.Tables, t)
		} else {
			p.tables = append(p.tables, t)
		}
		fr.table = t

	case "tr":
		if t := s.nearestTable(); t != nil {
			r := &Row{}
			t.Rows = append(t.Rows, r)
			fr.row = r
		}

	case "tc":
		if r := s.nearestRow(); r != nil {
			c := &Cell{}
			r.Cells = append(r.Cells, c)
			fr.cell = c
		}

	case "t":
		para := s.nearestParagraph()
		if para == nil {
			return
		}
		node := &textNode{elemStart: start, contentStart: end}
		if selfClosing {
			node.elemEnd = end
		} else {
			fr.node = node
		}
		para.nodes = append(para.nodes, node)
		p.nodes = append(p.nodes, node)

	case "tab", "br", "cr":
		if len(s.stack) == 0 || s.stack[len(s.stack)-1].local != "r" {
			return
		}
		para := s.nearestParagraph()
		if para == nil {
			return
		}
		text := "\n"
		if fr.local == "tab" {
			text = "\t"
		}
		node := &textNode{elemStart: start, elemEnd: end, text: text, fixed: true}
		para.nodes = append(para.nodes, node)
		p.nodes = append(p.nodes, node)

	case "sectPr":
		p.sections = append(p.sections, sectionRefs{headers: map[string]string{}, footers: map[string]string{}})
		fr.section = len(p.sections)

	case "headerReference", "footerReference":
		idx := s.nearestSection()
		if idx == 0 {
			return
		}
		kind := "default"
		if m := attrType.FindSubmatch(tag); m != nil {
			kind = string(m[1])
		}
		m := attrRelID.FindSubmatch(tag)
		if m == nil {
			return
		}
		refs := &p.sections[idx-1]
		if fr.local == "headerReference" {
			refs.headers[kind] = string(m[1])
		} else {
			refs.footers[kind] = string(m[1])
		}

	case "titlePg":
		idx := s.nearestSection()
		if idx == 0 {
			return
		}
		on := true
		if m := attrVal.FindSubmatch(tag); m != nil {
			switch strings.ToLower(string(m[1])) {
			case "0", "false", "off":
				on = false
			}
		}
		p.sections[idx-1].titlePage = on
	}
}

func (s *scanner) endElement(name string, start, end int) {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].name != name {
			continue
		}
		if node := s.stack[k].node; node != nil {
			node.elemEnd = end
			node.text = unescape(s.part.data[node.contentStart:start])
		}
		s.stack = s.stack[:k]
		return
	}
}

func (s *scanner) nearestParagraph() *Paragraph {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].para != nil {
			return s.stack[k].para
		}
	}
	return nil
}

func (s *scanner) nearestCell() *Cell {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].cell != nil {
			return s.stack[k].cell
		}
	}
	return nil
}

func (s *scanner) nearestTable() *Table {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].table != nil {
			return s.stack[k].table
		}
	}
	return nil
}

func (s *scanner) nearestRow() *Row {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].row != nil {
			return s.stack[k].row
		}
	}
	return nil
}

func (s *scanner) nearestSection() int {
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k].section != 0 {
			return s.stack[k].section
		}
	}
	return 0
}
