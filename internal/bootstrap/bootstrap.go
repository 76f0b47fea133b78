// Package bootstrap installs a testing workflow into an OpenSpec project: it forks a schema,
// writes the test templates and patches schema.yaml, the tasks template and the project config.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/kevinwang15/schemaedit"
	"github.com/kevinwang15/schemaedit/internal/assets"
	"github.com/kevinwang15/schemaedit/internal/config"
)

// TasksArtifact is the schema artifact that gets the new artifacts as dependencies.
const TasksArtifact = "tasks"

// Deps are the collaborators of Run. Zero values fall back to the real implementations.
type Deps struct {
	Runner   Runner
	Resolver Resolver
	Logger   *zap.Logger
	// Diff receives a unified diff of schema.yaml in dry-run mode.
	Diff io.Writer
}

type bootstrap struct {
	opts      config.Options
	runner    Runner
	log       *zap.Logger
	diff      io.Writer
	files     store
	openspec  Command
	templates assets.Templates

	openspecDir string
	schemaDir   string
	schemaFile  string
	templateDir string
}

// Run performs the bootstrap sequence for opts, which must already be finalized.
func Run(ctx context.Context, opts config.Options, deps Deps) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Runner == nil {
		deps.Runner = ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	}
	if deps.Resolver.GOOS == "" {
		deps.Resolver.GOOS = runtime.GOOS
	}
	if deps.Diff == nil {
		deps.Diff = io.Discard
	}

	if !exists(opts.ProjectRoot) {
		return fmt.Errorf("%w: %s", ErrProjectRootMissing, opts.ProjectRoot)
	}

	cmd, err := deps.Resolver.Resolve(opts.ProjectRoot, opts.OpenSpecCmd)
	if err != nil {
		return err
	}

	templates := assets.EmbeddedTemplates()
	if opts.TemplatesDir != "" {
		templates = assets.DirTemplates(opts.TemplatesDir)
	}

	openspecDir := filepath.Join(opts.ProjectRoot, "openspec")
	schemaDir := filepath.Join(openspecDir, "schemas", opts.Schema)
	b := &bootstrap{
		opts:        opts,
		runner:      deps.Runner,
		log:         deps.Logger,
		diff:        deps.Diff,
		files:       store{dryRun: opts.DryRun, log: deps.Logger},
		openspec:    cmd,
		templates:   templates,
		openspecDir: openspecDir,
		schemaDir:   schemaDir,
		schemaFile:  filepath.Join(schemaDir, "schema.yaml"),
		templateDir: filepath.Join(schemaDir, "templates"),
	}
	return b.run(ctx)
}

func (b *bootstrap) run(ctx context.Context) error {
	if err := b.initProject(ctx); err != nil {
		return err
	}
	if err := b.rebuild(); err != nil {
		return err
	}
	if err := b.fork(ctx); err != nil {
		return err
	}

	if !exists(b.schemaFile) {
		if b.opts.DryRun {
			b.log.Info("[dry-run] would create and patch", zap.String("path", b.schemaFile))
			b.log.Info("[dry-run] done")
			return nil
		}
		return fmt.Errorf("%w: %s", ErrSchemaFileMissing, b.schemaFile)
	}

	steps := []func() error{
		b.writeTemplates,
		b.patchSchema,
		b.patchTasksTemplate,
		b.setDefault,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	if err := b.validate(ctx); err != nil {
		return err
	}

	b.log.Info("done")
	return nil
}

func (b *bootstrap) runOpenSpec(ctx context.Context, sub ...string) error {
	args := b.openspec.args(sub...)
	if b.opts.DryRun {
		b.log.Info("[dry-run] run", zap.String("cmd", b.openspec.Path+" "+strings.Join(args, " ")))
		return nil
	}
	b.log.Debug("run", zap.String("cmd", b.openspec.Path), zap.Strings("args", args))
	return b.runner.Run(ctx, b.opts.ProjectRoot, b.openspec.Path, args...)
}

func (b *bootstrap) initProject(ctx context.Context) error {
	if exists(b.openspecDir) {
		return nil
	}
	if b.opts.NoInit {
		return fmt.Errorf("%w at %s (auto-init disabled via --no-init)", ErrNotInitialized, b.openspecDir)
	}

	b.log.Info("no openspec/ detected, running 'openspec init'")
	args := []string{"init"}
	if b.opts.Tools != "" && !strings.EqualFold(b.opts.Tools, "none") {
		args = append(args, "--tools", b.opts.Tools)
	}
	args = append(args, "--force")
	return b.runOpenSpec(ctx, args...)
}

func (b *bootstrap) rebuild() error {
	if !b.opts.ForceRebuild || !exists(b.schemaDir) {
		return nil
	}
	b.log.Info("force rebuild: removing schema", zap.String("dir", b.schemaDir))
	if b.opts.DryRun {
		return nil
	}
	if err := os.RemoveAll(b.schemaDir); err != nil {
		return fmt.Errorf("remove %s: %w", b.schemaDir, err)
	}
	return nil
}

func (b *bootstrap) fork(ctx context.Context) error {
	if exists(b.schemaDir) {
		b.log.Info("schema exists; updating in place", zap.String("dir", b.schemaDir))
		return nil
	}
	b.log.Info("fork schema", zap.String("from", b.opts.ForkFrom), zap.String("to", b.opts.Schema))
	return b.runOpenSpec(ctx, "schema", "fork", b.opts.ForkFrom, b.opts.Schema)
}

func (b *bootstrap) writeTemplates() error {
	for _, a := range assets.Artifacts(b.opts.AddEvidence) {
		text, err := b.templates.Read(a.Template)
		if err != nil {
			return err
		}
		dst := filepath.Join(b.templateDir, a.Template)
		if err := b.files.write(dst, text); err != nil {
			return err
		}
		if !b.opts.DryRun {
			b.log.Info("wrote template", zap.String("path", dst))
		}
	}
	return nil
}

func (b *bootstrap) patchSchema() error {
	before, raw, err := b.files.read(b.schemaFile)
	if err != nil {
		return err
	}

	artifacts := assets.Artifacts(b.opts.AddEvidence)
	doc := before
	for _, a := range artifacts {
		block, err := assets.LoadSnippet(a.Snippet, b.opts.EvidenceDir)
		if err != nil {
			return err
		}
		if err := assets.CheckSnippet(block, a.ID); err != nil {
			return fmt.Errorf("%w %s: %w", ErrSnippetInvalid, a.Snippet, err)
		}
		doc = schemaedit.EnsureArtifactBlock(doc, a.ID, block)
	}
	for _, a := range artifacts {
		doc = schemaedit.EnsureArtifactRequires(doc, TasksArtifact, a.ID)
	}

	rep, err := schemaedit.Verify(doc)
	switch {
	case err != nil:
		if _, inErr := schemaedit.Verify(before); inErr == nil {
			return fmt.Errorf("%w: %s: %w", ErrPatchBrokeSchema, b.schemaFile, err)
		}
		b.log.Warn("schema.yaml did not parse before patching", zap.Error(err))
	case !rep.Has(TasksArtifact):
		b.log.Warn("schema has no tasks artifact; requires not added", zap.String("path", b.schemaFile))
	case len(rep.Duplicates) > 0:
		b.log.Warn("schema has duplicate artifact ids", zap.Strings("ids", rep.Duplicates))
	}

	if doc == raw {
		b.log.Debug("schema already up to date", zap.String("path", b.schemaFile))
		return nil
	}
	if b.opts.DryRun {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(before),
			B:        difflib.SplitLines(doc),
			FromFile: b.schemaFile,
			ToFile:   b.schemaFile,
			Context:  3,
		})
		if err != nil {
			return fmt.Errorf("diff %s: %w", b.schemaFile, err)
		}
		_, _ = io.WriteString(b.diff, diff)
	}

	if err := b.files.write(b.schemaFile, doc); err != nil {
		return err
	}
	if !b.opts.DryRun {
		b.log.Info("updated schema", zap.String("path", b.schemaFile))
	}
	return nil
}

func (b *bootstrap) patchTasksTemplate() error {
	path := filepath.Join(b.templateDir, "tasks.md")
	if !exists(path) {
		return nil
	}
	text, _, err := b.files.read(path)
	if err != nil {
		return err
	}
	patched, changed := EnsureTestingSection(text, b.opts.EvidenceDir, b.opts.AddEvidence)
	if !changed {
		return nil
	}
	if err := b.files.write(path, patched); err != nil {
		return err
	}
	b.log.Info("patched tasks template", zap.String("path", path))
	return nil
}

func (b *bootstrap) setDefault() error {
	if !b.opts.SetDefault {
		return nil
	}
	if !b.opts.DryRun {
		configFile := filepath.Join(b.openspecDir, "config.yaml")
		content := ""
		if exists(configFile) {
			var err error
			if content, _, err = b.files.read(configFile); err != nil {
				return err
			}
		}
		if err := b.files.write(configFile, schemaedit.SetDefaultSchema(content, b.opts.Schema)); err != nil {
			return err
		}
	}
	b.log.Info("set default schema", zap.String("schema", b.opts.Schema))
	return nil
}

func (b *bootstrap) validate(ctx context.Context) error {
	if !b.opts.Validate {
		return nil
	}
	b.log.Info("validate schema", zap.String("schema", b.opts.Schema))
	return b.runOpenSpec(ctx, "schema", "validate", b.opts.Schema)
}
