package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/metrics"
	"engagement-letters/internal/docx"
	"engagement-letters/internal/engagement/persistence"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTemplate(t *testing.T, dir string, loanType models.LoanType, letterType models.LetterType) {
	t.Helper()
	err := docx.NewBuilder().
		Header(docx.HeaderDefault, "{{loan_name}} / {{loan_number}}").
		Paragraph("{{date}}").
		Paragraph("Dear {{contact_first_name}} {{contact_last_name}},").
		Table([][]string{{"Fee", "{{fee}}"}, {"Due", "{{delivery_date}}"}}).
		Footer(docx.HeaderDefault, "{{company_name}}").
		Save(filepath.Join(dir, templates.FileName(loanType, letterType)))
	require.NoError(t, err)
}

func record() *models.EngagementRecord {
	return &models.EngagementRecord{
		LoanType:   models.LoanType504,
		LetterType: models.LetterAppraisal,
		Vendor:     models.Vendor{FirstName: "Mark", LastName: "Hill", Company: "Hill Valuation", Email: "m@hill.example", Type: "APP", Region: "N/A"},
		Dates:      models.Dates{CurrentDate: "3/4/2024", DeliveryDate: "3/18/2024"},
		Loan:       models.Loan{LoanName: "ABC Property", LoanNumber: "L-1", CDCCompany: "Bay CDC"},
		Property: models.Property{
			PropertyAddress: "1 Main St", PropertyType: "Retail", Sqft: "1200", Fee: "2500",
			PropertyContactName: "Jo", PropertyContactPhone: "555", ItemToSend: "TBD",
		},
	}
}

func newGenerator(t *testing.T) (*Generator, string, string) {
	t.Helper()
	tplDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	ids := 0
	g := New(templates.NewStore(tplDir), outDir,
		WithLogger(logger.NewTestLogger(t)),
		WithIDFunc(func() string { ids++; return "req-" + string(rune('0'+ids)) }))
	return g, tplDir, outDir
}

func readDoc(t *testing.T, path string) (body string, header string, footer string) {
	t.Helper()
	doc, err := docx.Open(path)
	require.NoError(t, err)
	s := doc.Sections()[0]
	return doc.Body().Text(), s.Header(docx.HeaderDefault).Text(), s.Footer(docx.HeaderDefault).Text()
}

func TestGenerate(t *testing.T) {
	g, tplDir, outDir := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterAppraisal)

	res, err := g.Generate(context.Background(), record(), "")
	require.NoError(t, err)

	want := &Result{
		RequestID:    "req-1",
		LoanName:     "ABC Property",
		LetterType:   models.LetterAppraisal,
		TemplatePath: filepath.Join(tplDir, "504 - Appraisal Engagement Letter.docx"),
		OutputPath:   filepath.Join(outDir, "ABC Property Appraisal Engagement Letter.docx"),
		Replacements: 8,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	body, header, footer := readDoc(t, res.OutputPath)
	assert.Equal(t, "3/4/2024\nDear Mark Hill,\nFee\n2500\nDue\n3/18/2024", body)
	assert.Equal(t, "ABC Property / L-1", header)
	assert.Equal(t, "Hill Valuation", footer)
}

func TestGenerate_ExplicitNameAndMissingFields(t *testing.T) {
	g, tplDir, outDir := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType7A, models.LetterPhase2)

	rec := record()
	rec.LoanType = models.LoanType7A
	rec.LetterType = models.LetterPhase2
	rec.Vendor.LastName = ""

	res, err := g.Generate(context.Background(), rec, "custom.docx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "custom.docx"), res.OutputPath)
	assert.Equal(t, []string{"vendor.last_name"}, res.Missing)

	body, _, _ := readDoc(t, res.OutputPath)
	assert.Contains(t, body, "Dear Mark ,")
}

func TestGenerate_MetricsUseNormalizedLoanType(t *testing.T) {
	g, tplDir, _ := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType7A, models.LetterAppraisal)

	upper := metrics.LettersGenerated.WithLabelValues("APP", "7A")
	lower := metrics.LettersGenerated.WithLabelValues("APP", "7a")
	before := testutil.ToFloat64(upper)

	rec := record()
	rec.LoanType = "7a"
	_, err := g.Generate(context.Background(), rec, "")
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(upper))
	assert.Equal(t, float64(0), testutil.ToFloat64(lower))
}

func TestGenerate_TemplateNotFound(t *testing.T) {
	g, tplDir, outDir := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType7A, models.LetterAppraisal)

	_, err := g.Generate(context.Background(), record(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "ABC Property")

	var nf *templates.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"7A - Appraisal Engagement Letter.docx"}, nf.Available)
	assert.Contains(t, err.Error(), "(available: 7A - Appraisal Engagement Letter.docx)")

	std := Classify(err)
	assert.Equal(t, apperrors.ErrCodeTemplateNotFound, std.Code)

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_CorruptTemplate(t *testing.T) {
	g, tplDir, _ := newGenerator(t)
	path := filepath.Join(tplDir, templates.FileName(models.LoanType504, models.LetterAppraisal))
	require.NoError(t, os.WriteFile(path, []byte("not a docx"), 0o644))

	_, err := g.Generate(context.Background(), record(), "")
	assert.ErrorIs(t, err, docx.ErrInvalidDocument)
	assert.Equal(t, apperrors.ErrCodeInternal, Classify(err).Code)
}

func TestGenerate_Cancelled(t *testing.T) {
	g, tplDir, _ := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterAppraisal)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, record(), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func dual() *models.DualEngagementRecord {
	return &models.DualEngagementRecord{
		LoanType: models.LoanType504,
		Appraisal: models.EngagementSide{
			LetterType: models.LetterAppraisal,
			Vendor:     models.Vendor{FirstName: "Mark"},
			Dates:      models.Dates{CurrentDate: "3/4/2024", DeliveryDate: "3/18/2024", Fee: "500"},
		},
		Environmental: models.EngagementSide{
			LetterType: models.LetterEnvironmental,
			Vendor:     models.Vendor{FirstName: "Darrin"},
			Dates:      models.Dates{CurrentDate: "3/4/2024", DeliveryDate: "3/11/2024", Fee: "750"},
		},
		Shared: models.SharedDetails{
			Loan:     models.Loan{LoanName: "ABC Property", CDCCompany: "Bay CDC"},
			Property: models.Property{PropertyAddress: "1 Main St", ItemToSend: "TBD"},
		},
	}
}

func TestGenerateDual(t *testing.T) {
	g, tplDir, outDir := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterAppraisal)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterEnvironmental)

	rec := dual()
	out, err := g.GenerateDual(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, out.Results(), 2)

	assert.Equal(t, filepath.Join(outDir, "ABC Property Appraisal Engagement Letter.docx"), out.Appraisal.OutputPath)
	assert.Equal(t, filepath.Join(outDir, "ABC Property Phase 1 Engagement Letter.docx"), out.Environmental.OutputPath)

	appBody, appHeader, _ := readDoc(t, out.Appraisal.OutputPath)
	envBody, envHeader, _ := readDoc(t, out.Environmental.OutputPath)
	assert.Contains(t, appBody, "Fee\n500")
	assert.Contains(t, envBody, "Fee\n750")
	assert.Equal(t, appHeader, envHeader)
	assert.Empty(t, rec.Shared.Property.Fee)
}

func TestGenerateDual_IsolatesFailures(t *testing.T) {
	g, tplDir, _ := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterEnvironmental)

	out, err := g.GenerateDual(context.Background(), dual())
	require.Error(t, err)
	assert.ErrorIs(t, out.AppraisalErr, templates.ErrTemplateNotFound)
	assert.NoError(t, out.EnvironmentalErr)
	require.NotNil(t, out.Environmental)
	assert.Len(t, out.Results(), 1)
}

func TestBatch(t *testing.T) {
	g, tplDir, outDir := newGenerator(t)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterAppraisal)
	writeTemplate(t, tplDir, models.LoanType504, models.LetterEnvironmental)

	jsonDir := t.TempDir()
	_, err := persistence.SaveSingle(jsonDir, record())
	require.NoError(t, err)
	_, err = persistence.SaveDual(jsonDir, dual())
	require.NoError(t, err)

	missing := record()
	missing.Loan.LoanName = "Other Loan"
	missing.LoanType = models.LoanTypeCC
	_, err = persistence.SaveSingle(jsonDir, missing)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(jsonDir, "notes.txt"), []byte("skip"), 0o644))

	report, err := g.Batch(context.Background(), jsonDir)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Len(t, report.Items, 4)
	assert.Equal(t, 3, report.Generated())
	assert.Equal(t, 2, report.Failed())

	byFile := map[string]BatchItem{}
	for _, it := range report.Items {
		byFile[it.File] = it
	}
	assert.ErrorIs(t, byFile["broken.json"].Err, persistence.ErrPersistence)
	assert.ErrorIs(t, byFile["Other Loan_APP_data.json"].Err, templates.ErrTemplateNotFound)
	assert.Contains(t, byFile["Other Loan_APP_data.json"].Err.Error(),
		"(available: 504 - Appraisal Engagement Letter.docx, 504 - Environmental Engagement Letter.docx)")
	assert.Len(t, byFile["ABC Property_dual_data.json"].Results, 2)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBatch_MissingDir(t *testing.T) {
	g, _, _ := newGenerator(t)
	_, err := g.Batch(context.Background(), filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, persistence.ErrPersistence)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))

	perr := &persistence.Error{Path: "a.json", Err: os.ErrNotExist}
	assert.Equal(t, apperrors.ErrCodePersistenceError, Classify(perr).Code)

	verr := &persistence.Error{Path: "a.json", Err: &persistence.ValidationError{Problems: []string{"x"}}}
	assert.Equal(t, apperrors.ErrCodeRecordValidationFailed, Classify(verr).Code)

	werr := &Error{LoanName: "L", Stage: "write", Err: os.ErrPermission}
	assert.Equal(t, apperrors.ErrCodeDocumentWriteFailed, Classify(werr).Code)
}
