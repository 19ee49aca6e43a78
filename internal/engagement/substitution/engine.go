// Package substitution fills placeholder tokens in every text region of a
// letter template.
package substitution

import (
	"strings"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/docx"
)

// Report counts what Apply changed.
type Report struct {
	Replacements map[string]int
	Paragraphs   int
	Regions      int
}

// Total is the number of token occurrences replaced.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Replacements {
		n += c
	}
	return n
}

type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{logger: log.WithFields(map[string]interface{}{"component": "substitution"})}
}

// Apply replaces every recognized token in the body (tables included) and in
// each distinct header and footer of every section. Tokens missing from
// values, and unknown tokens, are left as they are.
func (e *Engine) Apply(doc *docx.Document, values Values) Report {
	report := Report{Replacements: map[string]int{}}

	e.applyPart(doc.Body(), values, &report)
	for _, part := range doc.HeaderFooterParts() {
		e.applyPart(part, values, &report)
	}

	e.logger.Debug("substitution applied", map[string]interface{}{
		"regions":      report.Regions,
		"paragraphs":   report.Paragraphs,
		"replacements": report.Total(),
	})
	return report
}

func (e *Engine) applyPart(part *docx.Part, values Values, report *Report) {
	if part == nil {
		return
	}
	report.Regions++
	for _, p := range part.Paragraphs() {
		applyParagraph(p, values, report)
	}
	for _, t := range part.Tables() {
		applyTable(t, values, report)
	}
}

func applyTable(t *docx.Table, values Values, report *Report) {
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			for _, p := range cell.Paragraphs {
				applyParagraph(p, values, report)
			}
			for _, nested := range cell.Tables {
				applyTable(nested, values, report)
			}
		}
	}
}

func applyParagraph(p *docx.Paragraph, values Values, report *Report) {
	text := p.Text()
	if !strings.Contains(text, "{{") {
		return
	}
	touched := false
	for _, token := range Tokens {
		value, ok := values[token]
		if !ok || !strings.Contains(text, token) {
			continue
		}
		if n := p.Replace(token, value); n > 0 {
			report.Replacements[token] += n
			touched = true
			text = p.Text()
		}
	}
	if touched {
		report.Paragraphs++
	}
}

// Remaining returns the recognized tokens still present anywhere in doc.
func Remaining(doc *docx.Document) []string {
	var texts []string
	texts = append(texts, doc.Body().Text())
	for _, part := range doc.HeaderFooterParts() {
		texts = append(texts, part.Text())
	}
	all := strings.Join(texts, "\n")

	var out []string
	for _, token := range Tokens {
		if strings.Contains(all, token) {
			out = append(out, token)
		}
	}
	return out
}
