// Package generator turns engagement records into filled letters on disk.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/common/observability"
	"engagement-letters/internal/docx"
	"engagement-letters/internal/engagement/substitution"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Error labels a failed generation with the loan it was for.
type Error struct {
	LoanName   string
	LetterType models.LetterType
	Stage      string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s letter: %s: %v", e.LoanName, templates.DisplayName(e.LetterType), e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result describes one written letter.
type Result struct {
	RequestID    string            `json:"requestId"`
	LoanName     string            `json:"loanName"`
	LetterType   models.LetterType `json:"letterType"`
	TemplatePath string            `json:"templatePath"`
	OutputPath   string            `json:"outputPath"`
	Replacements int               `json:"replacements"`
	Missing      []string          `json:"missing,omitempty"`
}

type Generator struct {
	store     *templates.Store
	engine    *substitution.Engine
	outputDir string
	obs       *observability.Observability
	logger    logger.Logger
	newID     func() string
}

type Option func(*Generator)

func WithLogger(log logger.Logger) Option {
	return func(g *Generator) { g.logger = log }
}

// WithObservability records a span per generated letter.
func WithObservability(obs *observability.Observability) Option {
	return func(g *Generator) { g.obs = obs }
}

// WithIDFunc replaces the request id source.
func WithIDFunc(f func() string) Option {
	return func(g *Generator) { g.newID = f }
}

func New(store *templates.Store, outputDir string, opts ...Option) *Generator {
	g := &Generator{
		store:     store,
		outputDir: outputDir,
		logger:    logger.NewNoOpLogger(),
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(g)
	}
	g.logger = g.logger.WithFields(map[string]interface{}{"component": "generator"})
	g.engine = substitution.NewEngine(g.logger)
	return g
}

func (g *Generator) OutputDir() string {
	return g.outputDir
}

// Generate fills the template selected by rec's loan and letter types and
// writes it to the output directory. An empty outputName uses the default
// "{loan} {display} Engagement Letter.docx". Nothing is written unless every
// step before the save succeeds.
func (g *Generator) Generate(ctx context.Context, rec *models.EngagementRecord, outputName string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RequestID:  g.newID(),
		LoanName:   rec.Loan.LoanName,
		LetterType: rec.LetterType,
	}
	fail := func(stage string, err error) (*Result, error) {
		metrics.LettersFailed.WithLabelValues(stage).Inc()
		g.logger.Error("Letter generation failed", map[string]interface{}{
			"requestId":  res.RequestID,
			"loanName":   res.LoanName,
			"letterType": res.LetterType,
			"stage":      stage,
			"error":      err.Error(),
		})
		return nil, &Error{LoanName: res.LoanName, LetterType: res.LetterType, Stage: stage, Err: err}
	}

	ctx, span := g.obs.StartSpan(ctx, "letters.generate",
		attribute.String("request.id", res.RequestID),
		attribute.String("loan.type", string(rec.LoanType)),
		attribute.String("letter.type", string(rec.LetterType)),
	)
	defer span.End()

	path, err := g.store.Resolve(rec.LoanType, rec.LetterType)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fail(metrics.StageTemplate, err)
	}
	res.TemplatePath = path

	doc, err := docx.Open(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fail(metrics.StageLoad, err)
	}

	res.Missing = substitution.MissingFields(rec)
	if len(res.Missing) > 0 {
		g.logger.Warn("Record has blank fields", map[string]interface{}{
			"requestId": res.RequestID,
			"loanName":  res.LoanName,
			"fields":    res.Missing,
		})
	}
	report := g.engine.Apply(doc, substitution.Flatten(rec))
	res.Replacements = report.Total()

	if outputName == "" {
		outputName = templates.OutputFilename(rec.Loan.LoanName, rec.LetterType)
	}
	res.OutputPath = filepath.Join(g.outputDir, outputName)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fail(metrics.StageWrite, err)
	}
	if err := doc.Save(res.OutputPath); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fail(metrics.StageWrite, err)
	}

	elapsed := time.Since(start)
	metrics.LettersGenerated.WithLabelValues(string(rec.LetterType.Canonical()), string(models.NormalizeLoanType(string(rec.LoanType)))).Inc()
	metrics.LetterGenerationDuration.WithLabelValues(string(rec.LetterType.Canonical())).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("replacements", res.Replacements))

	g.logger.Info("Letter generated", map[string]interface{}{
		"requestId":    res.RequestID,
		"loanName":     res.LoanName,
		"letterType":   res.LetterType,
		"output":       res.OutputPath,
		"replacements": res.Replacements,
		"durationMs":   elapsed.Milliseconds(),
	})
	return res, nil
}

// DualResult holds the outcome of each side; a failed side has a nil result
// and its error set.
type DualResult struct {
	Appraisal        *Result
	Environmental    *Result
	AppraisalErr     error
	EnvironmentalErr error
}

// Results returns the letters that were written.
func (d *DualResult) Results() []*Result {
	var out []*Result
	if d.Appraisal != nil {
		out = append(out, d.Appraisal)
	}
	if d.Environmental != nil {
		out = append(out, d.Environmental)
	}
	return out
}

func (d *DualResult) Err() error {
	return errors.Join(d.AppraisalErr, d.EnvironmentalErr)
}

// GenerateDual writes the appraisal letter and the environmental letter of a
// dual record. A failure on one side does not stop the other. The
// environmental letter is named as a Phase 1 letter.
func (g *Generator) GenerateDual(ctx context.Context, rec *models.DualEngagementRecord) (*DualResult, error) {
	app, env := rec.Split()
	loanName := templates.SafeName(rec.Shared.Loan.LoanName)

	out := &DualResult{}
	out.Appraisal, out.AppraisalErr = g.Generate(ctx, &app,
		fmt.Sprintf("%s Appraisal Engagement Letter%s", loanName, templates.Extension))
	out.Environmental, out.EnvironmentalErr = g.Generate(ctx, &env,
		fmt.Sprintf("%s Phase 1 Engagement Letter%s", loanName, templates.Extension))
	return out, out.Err()
}
