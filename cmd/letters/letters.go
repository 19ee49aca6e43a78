// cmd/letters/letters.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"engagement-letters/internal/engagement/generator"
	"engagement-letters/internal/engagement/notify"
	"engagement-letters/internal/engagement/persistence"
	"engagement-letters/internal/engagement/records"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"
)

type letterOptions struct {
	loanType   string
	letterType string
	autofill   bool
	saveJSON   bool
	email      bool
}

func (o *letterOptions) bind(cmd *cobra.Command, withLetterType bool) {
	f := cmd.Flags()
	f.StringVar(&o.loanType, "loan-type", "", "loan type: 7a, 504 or CC")
	if withLetterType {
		f.StringVar(&o.letterType, "letter-type", "", "letter type: App, Env, Sec, SFR, Phase 1 or Phase 2")
	}
	f.BoolVar(&o.autofill, "autofill", true, "look vendors up and compute dates (default: letters.autofill)")
	f.BoolVar(&o.saveJSON, "save-json", false, "save the collected record (default: letters.save_json)")
	f.BoolVar(&o.email, "email", false, "email the letter to the vendor through SES")
}

// fromConfig applies the configured defaults to flags left unset.
func (o *letterOptions) fromConfig(cmd *cobra.Command, a *app) {
	if !cmd.Flags().Changed("autofill") {
		o.autofill = a.cfg.Letters.Autofill
	}
	if !cmd.Flags().Changed("save-json") {
		o.saveJSON = a.cfg.Letters.SaveJSON
	}
}

func (a *app) newSingleCmd() *cobra.Command {
	var opts letterOptions
	cmd := &cobra.Command{
		Use:   "single",
		Short: "Create a single engagement letter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fromConfig(cmd, a)
			return a.runSingle(cmd.Context(), opts)
		},
	}
	opts.bind(cmd, true)
	return cmd
}

func (a *app) newDualCmd() *cobra.Command {
	var opts letterOptions
	cmd := &cobra.Command{
		Use:   "dual",
		Short: "Create the appraisal and environmental letters of one loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.fromConfig(cmd, a)
			return a.runDual(cmd.Context(), opts)
		},
	}
	opts.bind(cmd, false)
	return cmd
}

func (a *app) askType(ctx context.Context, value, field, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.input.Ask(ctx, records.Request{Field: field, Prompt: prompt, Required: true})
}

func (a *app) runSingle(ctx context.Context, opts letterOptions) error {
	a.title("=== Single Engagement Letter Generation ===")

	loanType, err := a.askType(ctx, opts.loanType, "loan_type", "Enter loan type (7a/504/CC)")
	if err != nil {
		return err
	}
	letterType, err := a.askType(ctx, opts.letterType, "letter_type", "Enter letter type (App/Env/Sec/SFR/Phase 1/Phase 2)")
	if err != nil {
		return err
	}
	lt, let := models.NormalizeLoanType(loanType), models.NormalizeLetterType(letterType)

	if _, err := a.store().Resolve(lt, let); err != nil {
		a.reportMissingTemplate(err, fmt.Sprintf("No template found for %s - %s", lt, let))
		return err
	}

	a.section("--- Collecting Data for %s %s Letter ---", lt, let)
	norm, release, err := a.normalizer(ctx, opts.autofill)
	if err != nil {
		return err
	}
	defer release()

	rec, err := norm.Build(ctx, loanType, letterType, records.Sources{})
	if err != nil {
		return err
	}

	if opts.saveJSON {
		path, err := persistence.SaveSingle(a.cfg.Letters.JSONDir, rec)
		if err != nil {
			return err
		}
		a.println("Data saved to: %s", path)
	}

	a.section("--- Generating Document ---")
	res, err := a.generator("").Generate(ctx, rec, "")
	if err != nil {
		a.fail("Error generating document: %v", err)
		return err
	}
	a.success("Successfully created: %s", res.OutputPath)

	if opts.email {
		a.emailLetters(ctx, []notify.Letter{letterFor(res, rec.Vendor.Email)})
	}
	return nil
}

func (a *app) runDual(ctx context.Context, opts letterOptions) error {
	a.title("=== Dual Engagement Letter Generation ===")
	a.println("(Creating both Appraisal and Environmental letters)")

	loanType, err := a.askType(ctx, opts.loanType, "loan_type", "Enter loan type (7a/504/CC)")
	if err != nil {
		return err
	}
	lt := models.NormalizeLoanType(loanType)

	store := a.store()
	if _, err := store.Resolve(lt, models.LetterAppraisal); err != nil {
		a.reportMissingTemplate(err, fmt.Sprintf("Appraisal template not found for %s", lt))
		return err
	}
	if _, err := store.Resolve(lt, models.LetterEnvironmental); err != nil {
		a.reportMissingTemplate(err, fmt.Sprintf("Environmental template not found for %s", lt))
		return err
	}

	a.section("--- Collecting Data for %s Dual Letters ---", lt)
	norm, release, err := a.normalizer(ctx, opts.autofill)
	if err != nil {
		return err
	}
	defer release()

	rec, err := norm.BuildDual(ctx, loanType, records.DualSources{})
	if err != nil {
		return err
	}

	if opts.saveJSON {
		path, err := persistence.SaveDual(a.cfg.Letters.JSONDir, rec)
		if err != nil {
			return err
		}
		a.println("Data saved to: %s", path)
	}

	a.section("--- Generating Documents ---")
	out, err := a.generator("").GenerateDual(ctx, rec)
	a.printResults(out.Results())
	if out.AppraisalErr != nil {
		a.fail("Error generating appraisal letter: %v", out.AppraisalErr)
	}
	if out.EnvironmentalErr != nil {
		a.fail("Error generating environmental letter: %v", out.EnvironmentalErr)
	}

	if opts.email {
		var letters []notify.Letter
		if out.Appraisal != nil {
			letters = append(letters, letterFor(out.Appraisal, rec.Appraisal.Vendor.Email))
		}
		if out.Environmental != nil {
			letters = append(letters, letterFor(out.Environmental, rec.Environmental.Vendor.Email))
		}
		a.emailLetters(ctx, letters)
	}
	return err
}

func (a *app) newFromJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "from-json <file>",
		Short: "Generate letters from a saved record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFromJSON(cmd.Context(), args[0])
		},
	}
}

func (a *app) runFromJSON(ctx context.Context, path string) error {
	a.title("=== Generating from JSON: %s ===", path)
	results, err := a.generator("").GenerateFromJSON(ctx, path)
	a.printResults(results)
	if err != nil {
		a.fail("Error: %v", err)
	}
	return err
}

func (a *app) newBatchCmd() *cobra.Command {
	var jsonDir string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate letters for every saved record in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonDir == "" {
				jsonDir = a.cfg.Letters.JSONDir
			}
			return a.runBatch(cmd.Context(), jsonDir, a.cfg.Letters.OutputDir)
		},
	}
	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory of saved records (default: letters.json_dir)")
	return cmd
}

func (a *app) runBatch(ctx context.Context, jsonDir, outputDir string) error {
	a.title("=== Batch Processing JSON Files from %s ===", jsonDir)

	files, err := persistence.ListJSON(jsonDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.println("No JSON files found in %s", jsonDir)
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	report, err := a.generator(outputDir).Batch(ctx, jsonDir)
	if report != nil {
		for _, item := range report.Items {
			a.println("Processing: %s", item.File)
			a.printResults(item.Results)
			if item.Err != nil {
				a.fail("%v", item.Err)
			}
		}
		a.title("=== Batch Processing Complete ===")
		a.println("Generated %d document(s)", report.Generated())
		if n := report.Failed(); n > 0 {
			a.println("Failed: %d file(s)", n)
		}
	}
	return err
}

func (a *app) newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTemplates()
		},
	}
}

func (a *app) runTemplates() error {
	store := a.store()
	names, err := store.List()
	if err != nil {
		return err
	}
	a.title("Available templates:")
	if len(names) == 0 {
		a.println("  No templates found in %s", store.Dir())
		return nil
	}
	for _, n := range names {
		a.println("  - %s", n)
	}
	return nil
}

func (a *app) reportMissingTemplate(err error, headline string) {
	a.fail("Error: %s", headline)
	var nf *templates.NotFoundError
	if !errors.As(err, &nf) {
		return
	}
	a.println("Available templates in %s:", a.cfg.Letters.TemplateDir)
	for _, name := range nf.Available {
		a.println("  - %s", name)
	}
}

func (a *app) printResults(results []*generator.Result) {
	switch len(results) {
	case 0:
	case 1:
		a.success("Successfully created: %s", results[0].OutputPath)
	default:
		a.success("Successfully created:")
		for _, r := range results {
			a.println("  - %s", r.OutputPath)
		}
	}
}

func letterFor(res *generator.Result, to string) notify.Letter {
	return notify.Letter{
		DocumentPath: res.OutputPath,
		To:           to,
		LoanName:     res.LoanName,
		LetterType:   res.LetterType,
	}
}
