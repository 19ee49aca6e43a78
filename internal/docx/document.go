// Package docx reads a Word document, exposes its paragraphs, tables,
// headers and footers for text substitution, and writes it back with every
// untouched zip entry copied verbatim.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	defaultMainPart       = "word/document.xml"
)

// HeaderKind selects which pages a header or footer applies to.
type HeaderKind string

const (
	HeaderDefault HeaderKind = "default"
	HeaderFirst   HeaderKind = "first"
	HeaderEven    HeaderKind = "even"
)

// Kinds lists header/footer kinds in the order they are visited.
var Kinds = []HeaderKind{HeaderDefault, HeaderFirst, HeaderEven}

// Section is one document section with its effective headers and footers;
// references a section omits are inherited from the previous section.
type Section struct {
	Headers   map[HeaderKind]*Part
	Footers   map[HeaderKind]*Part
	TitlePage bool
}

// Header returns the section's header of the given kind, or nil.
func (s *Section) Header(kind HeaderKind) *Part {
	return s.Headers[kind]
}

// Footer returns the section's footer of the given kind, or nil.
func (s *Section) Footer(kind HeaderKind) *Part {
	return s.Footers[kind]
}

// Document is an opened .docx package.
type Document struct {
	files    []*zip.File
	parts    map[string]*Part
	body     *Part
	sections []*Section
}

// Open reads a document from disk.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// OpenBytes reads a document held in memory.
func OpenBytes(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{files: zr.File, parts: map[string]*Part{}}

	mainName := doc.mainPartName()
	body, err := doc.loadPart(mainName)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, mainName)
	}
	doc.body = body

	rels, err := doc.readRelationships(relsPathFor(mainName))
	if err != nil {
		return nil, err
	}
	if err := doc.buildSections(path.Dir(mainName), rels); err != nil {
		return nil, err
	}
	return doc, nil
}

// Body returns the main document part.
func (d *Document) Body() *Part {
	return d.body
}

// Sections returns the document's sections in order.
func (d *Document) Sections() []*Section {
	return d.sections
}

// HeaderFooterParts returns each distinct header and footer part once.
func (d *Document) HeaderFooterParts() []*Part {
	seen := map[*Part]bool{}
	var out []*Part
	add := func(p *Part) {
		if p != nil && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, s := range d.sections {
		for _, k := range Kinds {
			add(s.Headers[k])
		}
		for _, k := range Kinds {
			add(s.Footers[k])
		}
	}
	return out
}

func (d *Document) file(name string) *zip.File {
	for _, f := range d.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (d *Document) readFile(name string) ([]byte, error) {
	f := d.file(name)
	if f == nil {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidDocument, name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (d *Document) loadPart(name string) (*Part, error) {
	if p, ok := d.parts[name]; ok {
		return p, nil
	}
	data, err := d.readFile(name)
	if err != nil || data == nil {
		return nil, err
	}
	p, err := parsePart(name, data)
	if err != nil {
		return nil, err
	}
	d.parts[name] = p
	return p, nil
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func (d *Document) readRelationships(name string) (map[string]relationship, error) {
	data, err := d.readFile(name)
	if err != nil {
		return nil, err
	}
	out := map[string]relationship{}
	if data == nil {
		return out, nil
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, name, err)
	}
	for _, r := range rels.Items {
		out[r.ID] = r
	}
	return out, nil
}

func (d *Document) mainPartName() string {
	rels, err := d.readRelationships("_rels/.rels")
	if err != nil {
		return defaultMainPart
	}
	for _, r := range rels {
		if r.Type == relTypeOfficeDocument {
			return resolveTarget("", r.Target)
		}
	}
	return defaultMainPart
}

func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(baseDir, target)
}

func (d *Document) buildSections(baseDir string, rels map[string]relationship) error {
	var prev *Section
	for _, refs := range d.body.sections {
		s := &Section{
			Headers:   map[HeaderKind]*Part{},
			Footers:   map[HeaderKind]*Part{},
			TitlePage: refs.titlePage,
		}
		if prev != nil {
			for k, p := range prev.Headers {
				s.Headers[k] = p
			}
			for k, p := range prev.Footers {
				s.Footers[k] = p
			}
		}

		for kind, id := range refs.headers {
			p, err := d.partForRel(baseDir, rels, id)
			if err != nil {
				return err
			}
			if p != nil {
				s.Headers[HeaderKind(kind)] = p
			}
		}
		for kind, id := range refs.footers {
			p, err := d.partForRel(baseDir, rels, id)
			if err != nil {
				return err
			}
			if p != nil {
				s.Footers[HeaderKind(kind)] = p
			}
		}

		d.sections = append(d.sections, s)
		prev = s
	}
	return nil
}

func (d *Document) partForRel(baseDir string, rels map[string]relationship, id string) (*Part, error) {
	r, ok := rels[id]
	if !ok || strings.EqualFold(r.TargetMode, "External") {
		return nil, nil
	}
	return d.loadPart(resolveTarget(baseDir, r.Target))
}

// WriteTo writes the package. Modified parts are recompressed; every other
// entry is copied raw.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, f := range d.files {
		if p, ok := d.parts[f.Name]; ok && p.Modified() {
			hdr := &zip.FileHeader{
				Name:     f.Name,
				Method:   zip.Deflate,
				Modified: f.Modified,
			}
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return cw.n, err
			}
			if _, err := fw.Write(p.Bytes()); err != nil {
				return cw.n, err
			}
			continue
		}

		raw, err := f.OpenRaw()
		if err != nil {
			return cw.n, err
		}
		hdr := f.FileHeader
		fw, err := zw.CreateRaw(&hdr)
		if err != nil {
			return cw.n, err
		}
		if _, err := io.Copy(fw, raw); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Bytes returns the serialized package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to filename atomically.
func (d *Document) Save(filename string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return WriteFileAtomic(filename, data)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func WriteFileAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".tmp-*.docx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
