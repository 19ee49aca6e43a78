// cmd/letters/menu.go
package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"engagement-letters/internal/engagement/records"
)

func (a *app) newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu(cmd.Context())
		},
	}
}

var menuOptions = []string{
	"1. Create single engagement letter",
	"2. Create dual engagement letters (Appraisal + Environmental)",
	"3. Generate from saved JSON file",
	"4. Batch process JSON files",
	"5. List available templates",
	"6. Exit",
}

// runMenu loops until Exit is chosen or input ends. A failed option is
// reported and the menu is shown again.
func (a *app) runMenu(ctx context.Context) error {
	a.println("\n%s", titleStyle.Render("============================================================"))
	a.println("%s", titleStyle.Render(" ENGAGEMENT LETTER AUTOMATION SYSTEM"))
	a.println("%s", titleStyle.Render("============================================================"))

	for {
		a.println("\nSelect an option:")
		for _, o := range menuOptions {
			a.println("%s", o)
		}

		choice, err := a.input.Ask(ctx, records.Request{Field: "menu.choice", Prompt: "\nEnter choice (1-6)"})
		if err != nil {
			return menuExit(err)
		}

		switch choice {
		case "1", "2":
			opts, err := a.menuLetterOptions(ctx)
			if err != nil {
				return menuExit(err)
			}
			if choice == "1" {
				err = a.runSingle(ctx, opts)
			} else {
				err = a.runDual(ctx, opts)
			}
			if err := a.menuResult(err); err != nil {
				return err
			}
		case "3":
			path, err := a.input.Ask(ctx, records.Request{Field: "menu.json_path", Prompt: "\nEnter JSON file path"})
			if err != nil {
				return menuExit(err)
			}
			if _, statErr := os.Stat(path); statErr != nil {
				a.fail("File not found: %s", path)
			} else if err := a.menuResult(a.runFromJSON(ctx, path)); err != nil {
				return err
			}
		case "4":
			jsonDir, err := a.input.Ask(ctx, records.Request{
				Field: "menu.json_dir", Prompt: "\nEnter directory containing JSON files", Default: ".",
			})
			if err != nil {
				return menuExit(err)
			}
			outputDir, err := a.input.Ask(ctx, records.Request{
				Field: "menu.output_dir", Prompt: "Enter output directory", Default: a.cfg.Letters.OutputDir,
			})
			if err != nil {
				return menuExit(err)
			}
			if err := a.menuResult(a.runBatch(ctx, jsonDir, outputDir)); err != nil {
				return err
			}
		case "5":
			if err := a.menuResult(a.runTemplates()); err != nil {
				return err
			}
		case "6":
			a.println("\nGoodbye!")
			return nil
		default:
			a.fail("Invalid choice. Please try again.")
		}

		if _, err := a.input.Ask(ctx, records.Request{Field: "menu.continue", Prompt: "\nPress Enter to continue..."}); err != nil {
			return menuExit(err)
		}
	}
}

func (a *app) menuLetterOptions(ctx context.Context) (letterOptions, error) {
	var opts letterOptions
	var err error
	if opts.autofill, err = a.input.confirm(ctx, "\nUse autofill features?"); err != nil {
		return opts, err
	}
	if opts.saveJSON, err = a.input.confirm(ctx, "Save data to JSON?"); err != nil {
		return opts, err
	}
	return opts, nil
}

// menuResult keeps the menu running after an option fails, unless the run
// was interrupted or input ended.
func (a *app) menuResult(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInputClosed) {
		return menuExit(err)
	}
	a.logger.Debug("Menu option failed", map[string]interface{}{"error": err.Error()})
	return nil
}

func menuExit(err error) error {
	if errors.Is(err, ErrInputClosed) {
		return nil
	}
	return err
}
