// Command openspec-test-bootstrap adds test-plan (and optionally test-cards and
// test-evidence) artifacts to an OpenSpec workflow schema.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kevinwang15/schemaedit/internal/bootstrap"
	"github.com/kevinwang15/schemaedit/internal/config"
	"github.com/kevinwang15/schemaedit/internal/logging"
)

type runFunc func(ctx context.Context, opts config.Options, deps bootstrap.Deps) error

// flagAliases maps the camelCase spellings accepted by older scripts onto canonical flags.
var flagAliases = map[string]string{
	"projectRoot":             "project-root",
	"schemaName":              "schema",
	"forkFrom":                "fork-from",
	"evidenceDir":             "evidence-dir",
	"openspecCmd":             "openspec",
	"setDefault":              "set-default",
	"no-setDefault":           "no-set-default",
	"forceRebuild":            "force-rebuild",
	"no-forceRebuild":         "no-force-rebuild",
	"addEvidence":             "add-evidence",
	"addTestCardsAndEvidence": "add-evidence",
	"no-addEvidence":          "no-add-evidence",
	"dryRun":                  "dry-run",
	"noInit":                  "no-init",
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if canonical, ok := flagAliases[name]; ok {
		name = canonical
	}
	return pflag.NormalizedName(name)
}

type flags struct {
	projectRoot string
	configPath  string

	schema       string
	forkFrom     string
	tools        string
	evidenceDir  string
	templatesDir string
	openspecCmd  string

	noInit         bool
	setDefault     bool
	noSetDefault   bool
	forceRebuild   bool
	noForceRebuild bool
	validate       bool
	noValidate     bool
	addEvidence    bool
	noAddEvidence  bool
	dryRun         bool
	yes            bool
	verbose        bool
}

func newRootCmd(stdout, stderr io.Writer, run runFunc) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "openspec-test-bootstrap",
		Short: "Add testing artifacts to an OpenSpec workflow schema",
		Long: `Forks an OpenSpec schema (spec-driven by default) and wires a test-plan artifact
into it, so tasks cannot be applied before tests are planned. With --add-evidence the
test-cards and test-evidence artifacts are added as well.

Running it again is safe: artifacts and requires entries already present are left alone.
Defaults can be kept in ` + config.FileName + ` at the project root.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options(cmd.Flags())
			if err != nil {
				return err
			}
			log := logging.New(stdout, opts.Verbose)
			defer func() { _ = log.Sync() }()
			if opts.Source != "" {
				log.Debug("loaded config", zap.String("path", opts.Source))
			}
			return run(cmd.Context(), opts, bootstrap.Deps{Logger: log, Diff: stdout})
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetGlobalNormalizationFunc(normalizeFlag)

	fs := cmd.Flags()
	fs.StringVar(&f.projectRoot, "project-root", ".", "project directory containing openspec/")
	fs.StringVar(&f.configPath, "config", "", "config file (default <project-root>/"+config.FileName+")")
	fs.StringVar(&f.schema, "schema", "", "schema to create or update (default my-workflow)")
	fs.StringVar(&f.forkFrom, "fork-from", "", "schema to fork when --schema does not exist (default spec-driven)")
	fs.StringVar(&f.tools, "tools", "", `tools passed to "openspec init --tools" (default none)`)
	fs.StringVar(&f.evidenceDir, "evidence-dir", "", "directory for generated test artifacts (default evidence)")
	fs.StringVar(&f.templatesDir, "templates", "", "directory with custom test-*.md templates")
	fs.StringVar(&f.openspecCmd, "openspec", "", "openspec command or path")
	fs.BoolVar(&f.noInit, "no-init", false, "fail instead of running openspec init")
	fs.BoolVar(&f.setDefault, "set-default", false, "make the schema the project default (default on)")
	fs.BoolVar(&f.noSetDefault, "no-set-default", false, "leave openspec/config.yaml alone")
	fs.BoolVar(&f.forceRebuild, "force-rebuild", false, "delete the schema and fork it again")
	fs.BoolVar(&f.noForceRebuild, "no-force-rebuild", false, "update the existing schema in place")
	fs.BoolVar(&f.validate, "validate", false, "run openspec schema validate at the end (default on)")
	fs.BoolVar(&f.noValidate, "no-validate", false, "skip schema validation")
	fs.BoolVar(&f.addEvidence, "add-evidence", false, "also add test-cards and test-evidence artifacts")
	fs.BoolVar(&f.noAddEvidence, "no-add-evidence", false, "only add the test-plan artifact")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print what would change without writing or running anything")
	fs.BoolVarP(&f.yes, "yes", "y", false, "accepted for compatibility; the tool never prompts")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	_ = fs.MarkHidden("yes")

	return cmd
}

// options layers the flags that were set explicitly over the config file and defaults.
func (f *flags) options(fs *pflag.FlagSet) (config.Options, error) {
	opts, err := config.Load(f.projectRoot, f.configPath)
	if err != nil {
		return config.Options{}, err
	}

	str := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	str("schema", &opts.Schema, f.schema)
	str("fork-from", &opts.ForkFrom, f.forkFrom)
	str("tools", &opts.Tools, f.tools)
	str("evidence-dir", &opts.EvidenceDir, f.evidenceDir)
	str("templates", &opts.TemplatesDir, f.templatesDir)
	str("openspec", &opts.OpenSpecCmd, f.openspecCmd)

	toggle := func(name string, dst *bool, on, off bool) {
		if fs.Changed(name) {
			*dst = on
		}
		if fs.Changed("no-" + name) && off {
			*dst = false
		}
	}
	toggle("set-default", &opts.SetDefault, f.setDefault, f.noSetDefault)
	toggle("force-rebuild", &opts.ForceRebuild, f.forceRebuild, f.noForceRebuild)
	toggle("validate", &opts.Validate, f.validate, f.noValidate)
	toggle("add-evidence", &opts.AddEvidence, f.addEvidence, f.noAddEvidence)
	if fs.Changed("no-init") {
		opts.NoInit = f.noInit
	}
	if fs.Changed("dry-run") {
		opts.DryRun = f.dryRun
	}
	opts.Verbose = f.verbose

	if err := opts.Finalize(); err != nil {
		return config.Options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, fn runFunc) int {
	cmd := newRootCmd(stdout, stderr, fn)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", strings.TrimSpace(err.Error()))
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, bootstrap.Run)
	stop()
	os.Exit(code)
}
