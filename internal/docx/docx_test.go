package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *Builder) *Document {
	t.Helper()
	data, err := b.Bytes()
	require.NoError(t, err)
	doc, err := OpenBytes(data)
	require.NoError(t, err)
	return doc
}

func reopen(t *testing.T, doc *Document) *Document {
	t.Helper()
	data, err := doc.Bytes()
	require.NoError(t, err)
	out, err := OpenBytes(data)
	require.NoError(t, err)
	return out
}

func rawZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParagraph_ReplaceAcrossRuns(t *testing.T) {
	doc := build(t, NewBuilder().Paragraph("Dear {{ven", "dor}}, hello"))

	para := doc.Body().Paragraphs()[0]
	assert.Equal(t, "Dear {{vendor}}, hello", para.Text())
	assert.Equal(t, 1, para.Replace("{{vendor}}", "Acme Appraisals"))
	assert.Equal(t, "Dear Acme Appraisals, hello", para.Text())

	again := reopen(t, doc)
	assert.Equal(t, "Dear Acme Appraisals, hello", again.Body().Paragraphs()[0].Text())
}

func TestParagraph_ReplaceMultiple(t *testing.T) {
	doc := build(t, NewBuilder().Paragraph("{{x}} and {{", "x}} and {{x}}"))

	para := doc.Body().Paragraphs()[0]
	assert.Equal(t, 3, para.Replace("{{x}}", "1"))
	assert.Equal(t, "1 and 1 and 1", para.Text())
	assert.Equal(t, 0, para.Replace("{{x}}", "1"))
	assert.Equal(t, 0, para.Replace("", "1"))
}

func TestParagraph_TabIsFixed(t *testing.T) {
	doc := build(t, NewBuilder().Paragraph("Fee:\t{{fee}}"))

	para := doc.Body().Paragraphs()[0]
	assert.Equal(t, "Fee:\t{{fee}}", para.Text())
	assert.Equal(t, 0, para.Replace(":\t{{", "-"))
	assert.Equal(t, 1, para.Replace("{{fee}}", "$2,500"))

	again := reopen(t, doc)
	assert.Equal(t, "Fee:\t$2,500", again.Body().Paragraphs()[0].Text())
}

func TestParagraph_Entities(t *testing.T) {
	doc := build(t, NewBuilder().Paragraph("Smith & Sons <LLC>"))

	para := doc.Body().Paragraphs()[0]
	assert.Equal(t, "Smith & Sons <LLC>", para.Text())
	assert.Equal(t, 1, para.Replace("& Sons", "and Sons"))

	again := reopen(t, doc)
	assert.Equal(t, "Smith and Sons <LLC>", again.Body().Paragraphs()[0].Text())
}

func TestOpen_CustomPrefix(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<x:document xmlns:x="` + wordprocessingNS + `"><x:body>` +
		`<x:p><x:r><x:t>Hello {{name}}</x:t></x:r></x:p>` +
		`</x:body></x:document>`
	doc, err := OpenBytes(rawZip(t, map[string]string{"word/document.xml": body}))
	require.NoError(t, err)

	para := doc.Body().Paragraphs()[0]
	require.Equal(t, "Hello {{name}}", para.Text())
	para.Replace("{{name}}", "World")

	out := string(doc.Body().Bytes())
	assert.Contains(t, out, `<x:t xml:space="preserve">Hello World</x:t>`)
}

func TestTables_Nested(t *testing.T) {
	doc := build(t, NewBuilder().
		Table([][]string{{"Loan", "{{loan_name}}"}}).
		NestedTable([][]string{{"inner {{x}}"}}))

	tables := doc.Body().Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "{{loan_name}}", tables[0].Rows[0].Cells[1].Paragraphs[0].Text())

	outer := tables[1].Rows[0].Cells[0]
	require.Len(t, outer.Tables, 1)
	inner := outer.Tables[0].Rows[0].Cells[0].Paragraphs[0]
	assert.Equal(t, "inner {{x}}", inner.Text())
	assert.Empty(t, doc.Body().Paragraphs())
	assert.Len(t, doc.Body().AllParagraphs(), 4)
}

func TestSections_HeaderInheritance(t *testing.T) {
	doc := build(t, NewBuilder().
		Header(HeaderDefault, "Header {{loan_name}}").
		Footer(HeaderFirst, "First footer").
		Paragraph("page one").
		NewSection().
		Paragraph("page two").
		Footer(HeaderDefault, "Footer {{date}}"))

	sections := doc.Sections()
	require.Len(t, sections, 2)
	assert.True(t, sections[0].TitlePage)
	assert.False(t, sections[1].TitlePage)

	require.NotNil(t, sections[0].Header(HeaderDefault))
	assert.Same(t, sections[0].Header(HeaderDefault), sections[1].Header(HeaderDefault))
	assert.Same(t, sections[0].Footer(HeaderFirst), sections[1].Footer(HeaderFirst))
	assert.Nil(t, sections[0].Footer(HeaderDefault))
	require.NotNil(t, sections[1].Footer(HeaderDefault))
	assert.Equal(t, "Footer {{date}}", sections[1].Footer(HeaderDefault).Text())

	assert.Len(t, doc.HeaderFooterParts(), 3)
}

func TestWrite_UntouchedEntriesCopiedRaw(t *testing.T) {
	doc := build(t, NewBuilder().
		Header(HeaderDefault, "Static header").
		Paragraph("{{loan_name}}"))
	original, err := doc.Bytes()
	require.NoError(t, err)

	doc.Body().Paragraphs()[0].Replace("{{loan_name}}", "ABC Property")
	assert.True(t, doc.Body().Modified())
	updated, err := doc.Bytes()
	require.NoError(t, err)

	before := zipEntries(t, original)
	after := zipEntries(t, updated)
	require.Equal(t, len(before), len(after))
	for name, raw := range before {
		if name == "word/document.xml" {
			assert.NotEqual(t, raw, after[name])
			continue
		}
		assert.Equal(t, raw, after[name], name)
	}
}

func zipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.OpenRaw()
		require.NoError(t, err)
		raw, err := io.ReadAll(rc)
		require.NoError(t, err)
		out[f.Name] = raw
	}
	return out
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letter.docx")
	require.NoError(t, NewBuilder().Paragraph("{{vendor_name}}").Save(path))

	doc, err := Open(path)
	require.NoError(t, err)
	doc.Body().Paragraphs()[0].Replace("{{vendor_name}}", "Jane Doe")
	require.NoError(t, doc.Save(path))

	again, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again.Body().Text())
}

func TestOpen_Invalid(t *testing.T) {
	_, err := OpenBytes([]byte("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = OpenBytes(rawZip(t, map[string]string{"readme.txt": "hi"}))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = OpenBytes(rawZip(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="` + wordprocessingNS + `"><w:body><w:p><w:r><w:t>open`,
	}))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
