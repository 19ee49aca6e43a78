// cmd/letters/root.go
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"engagement-letters/internal/common/aws"
	"engagement-letters/internal/common/config"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/engagement/dates"
	"engagement-letters/internal/engagement/generator"
	"engagement-letters/internal/engagement/notify"
	"engagement-letters/internal/engagement/records"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/engagement/vendors"
)

// app carries what every command needs once the root command has loaded the
// configuration.
type app struct {
	out   io.Writer
	input *terminalInput

	configPath  string
	templateDir string
	outputDir   string
	vendorDB    string
	verbose     bool

	cfg    *config.Config
	zap    *zap.Logger
	logger logger.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{out: out, input: newTerminalInput(in, out)}

	root := &cobra.Command{
		Use:   "letters",
		Short: "Engagement letter automation",
		Long: `letters fills Word engagement-letter templates from loan, vendor and
property details.

Run without arguments to open the interactive menu.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.zap != nil {
				_ = a.zap.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMenu(cmd.Context())
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: configs/config.yaml)")
	pf.StringVar(&a.templateDir, "template-dir", "", "template directory (overrides letters.template_dir)")
	pf.StringVar(&a.outputDir, "output-dir", "", "output directory (overrides letters.output_dir)")
	pf.StringVar(&a.vendorDB, "vendor-db", "", "vendor dataset file: .csv, .xlsx or .db")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.newSingleCmd(),
		a.newDualCmd(),
		a.newFromJSONCmd(),
		a.newBatchCmd(),
		a.newTemplatesCmd(),
		a.newMenuCmd(),
	)
	return root
}

func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.templateDir != "" {
		cfg.Letters.TemplateDir = a.templateDir
	}
	if a.outputDir != "" {
		cfg.Letters.OutputDir = a.outputDir
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	zl, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.cfg = cfg
	a.zap = zl
	a.logger = logger.NewZapAdapter(zl).WithFields(map[string]interface{}{"component": "cli"})
	a.logger.Debug("Configuration loaded", map[string]interface{}{
		"templateDir": cfg.Letters.TemplateDir,
		"outputDir":   cfg.Letters.OutputDir,
		"vendors":     cfg.Vendors.Source,
	})
	return nil
}

func (a *app) store() *templates.Store {
	return templates.NewStore(a.cfg.Letters.TemplateDir)
}

func (a *app) generator(outputDir string) *generator.Generator {
	if outputDir == "" {
		outputDir = a.cfg.Letters.OutputDir
	}
	return generator.New(a.store(), outputDir, generator.WithLogger(a.logger))
}

// normalizer builds the record collector. With autofill on it loads the
// vendor dataset once; the returned func releases it.
func (a *app) normalizer(ctx context.Context, autofill bool) (*records.Normalizer, func(), error) {
	engine, err := dates.New(a.cfg.Letters.Timezone)
	if err != nil {
		return nil, nil, err
	}

	opts := []records.Option{
		records.WithLogger(a.logger),
		records.WithNotifier(records.NotifierFunc(func(msg string) {
			fmt.Fprintln(a.out, warnStyle.Render(msg))
		})),
	}
	release := func() {}

	if autofill {
		var (
			src     vendors.Source
			closeFn func() error
		)
		if a.vendorDB != "" {
			src, closeFn, err = vendors.SourceForPath(a.vendorDB)
		} else {
			src, closeFn, err = vendors.NewSource(a.cfg, a.logger)
		}
		if err != nil {
			return nil, nil, err
		}
		release = func() { _ = closeFn() }
		ds := vendors.LoadDataset(ctx, src, a.logger)
		opts = append(opts, records.WithResolver(vendors.NewResolver(ds, a.logger)))
	}

	n := records.New(a.input, engine, records.Options{
		Autofill:     autofill,
		SecondaryFee: a.cfg.Letters.SecFee,
	}, opts...)
	return n, release, nil
}

func (a *app) mailer(ctx context.Context) (*notify.Mailer, error) {
	from := a.cfg.Notifications.SES.FromEmail
	if from == "" {
		return nil, fmt.Errorf("notifications.ses.from_email is required to email letters")
	}
	client, err := aws.NewSESClient(ctx, a.cfg.Notifications.AWS.Region)
	if err != nil {
		return nil, err
	}
	return notify.NewMailer(client, from, a.logger), nil
}

// emailLetters sends each written letter to its vendor. Failures are printed
// and do not undo the generated files.
func (a *app) emailLetters(ctx context.Context, letters []notify.Letter) {
	m, err := a.mailer(ctx)
	if err != nil {
		a.fail("Email not sent: %v", err)
		return
	}
	for _, l := range letters {
		if _, err := m.Send(ctx, l); err != nil {
			a.fail("Email to %s failed: %v", l.To, err)
			continue
		}
		a.success("Emailed %s to %s", l.Subject(), l.To)
	}
}

func (a *app) title(format string, args ...interface{}) {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *app) section(format string, args ...interface{}) {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *app) success(format string, args ...interface{}) {
	fmt.Fprintln(a.out, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (a *app) fail(format string, args ...interface{}) {
	fmt.Fprintln(a.out, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (a *app) println(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format+"\n", args...)
}
