package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// FileName is the optional project config file, read from the project root.
const FileName = ".openspec-test-bootstrap.json"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrSchemaEmpty        = errors.New("schema name cannot be empty")
	ErrForkFromEmpty      = errors.New("fork-from schema cannot be empty")
	ErrEvidenceDirEmpty   = errors.New("evidence dir cannot be empty")
)

// Options is everything the bootstrap sequence can be told.
type Options struct {
	// ProjectRoot is the directory containing (or receiving) openspec/.
	ProjectRoot string
	// Schema is the schema to create or update under openspec/schemas.
	Schema string
	// ForkFrom is the base schema forked when Schema does not exist yet.
	ForkFrom string
	// Tools is passed to "openspec init --tools"; "none" omits the flag.
	Tools string
	// EvidenceDir is where generated test artifacts live, relative to the change.
	EvidenceDir string
	// TemplatesDir overrides the embedded markdown templates.
	TemplatesDir string
	// OpenSpecCmd overrides openspec discovery.
	OpenSpecCmd string

	NoInit       bool // fail instead of running "openspec init" when openspec/ is missing
	SetDefault   bool // point openspec/config.yaml at Schema
	ForceRebuild bool // delete the schema directory and fork again
	Validate     bool // run "openspec schema validate" at the end
	AddEvidence  bool // also install test-cards and test-evidence
	DryRun       bool // log actions, write and run nothing
	Verbose      bool

	// Source is the config file that was loaded, if any.
	Source string
}

// Defaults returns the options used when nothing else is configured.
func Defaults() Options {
	return Options{
		Schema:      "my-workflow",
		ForkFrom:    "spec-driven",
		Tools:       "none",
		EvidenceDir: "evidence",
		SetDefault:  true,
		Validate:    true,
	}
}

// fileConfig is the serialized form; pointers tell "unset" apart from zero values.
type fileConfig struct {
	Schema       *string `json:"schema"`
	ForkFrom     *string `json:"fork_from"`
	Tools        *string `json:"tools"`
	EvidenceDir  *string `json:"evidence_dir"`
	TemplatesDir *string `json:"templates"`
	OpenSpecCmd  *string `json:"openspec"`
	NoInit       *bool   `json:"no_init"`
	SetDefault   *bool   `json:"set_default"`
	ForceRebuild *bool   `json:"force_rebuild"`
	Validate     *bool   `json:"validate"`
	AddEvidence  *bool   `json:"add_evidence"`
}

// Load returns Defaults overlaid with the project config file. An explicit configPath must
// exist; otherwise FileName in projectRoot is read when present.
func Load(projectRoot, configPath string) (Options, error) {
	opts := Defaults()
	opts.ProjectRoot = projectRoot

	cfgFile := filepath.Join(projectRoot, FileName)
	mustExist := false
	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(projectRoot, cfgFile)
		}
		mustExist = true
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Options{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
			}
			return opts, nil
		}
		return Options{}, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, cfgFile, err)
	}

	fc, err := parse(data)
	if err != nil {
		return Options{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, err)
	}
	fc.apply(&opts)
	opts.Source = cfgFile
	return opts, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}
	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return fc, nil
}

func (fc fileConfig) apply(o *Options) {
	setString(&o.Schema, fc.Schema)
	setString(&o.ForkFrom, fc.ForkFrom)
	setString(&o.Tools, fc.Tools)
	setString(&o.EvidenceDir, fc.EvidenceDir)
	setString(&o.TemplatesDir, fc.TemplatesDir)
	setString(&o.OpenSpecCmd, fc.OpenSpecCmd)
	setBool(&o.NoInit, fc.NoInit)
	setBool(&o.SetDefault, fc.SetDefault)
	setBool(&o.ForceRebuild, fc.ForceRebuild)
	setBool(&o.Validate, fc.Validate)
	setBool(&o.AddEvidence, fc.AddEvidence)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Finalize normalizes paths and validates the options. ProjectRoot becomes absolute,
// EvidenceDir uses forward slashes without a trailing slash, and a relative TemplatesDir is
// resolved against ProjectRoot.
func (o *Options) Finalize() error {
	o.Schema = strings.TrimSpace(o.Schema)
	o.ForkFrom = strings.TrimSpace(o.ForkFrom)
	o.Tools = strings.TrimSpace(o.Tools)
	if o.Tools == "" {
		o.Tools = "none"
	}
	o.EvidenceDir = strings.TrimRight(strings.ReplaceAll(o.EvidenceDir, `\`, "/"), "/")

	switch {
	case o.Schema == "":
		return ErrSchemaEmpty
	case o.ForkFrom == "":
		return ErrForkFromEmpty
	case o.EvidenceDir == "":
		return ErrEvidenceDirEmpty
	}

	if o.ProjectRoot == "" {
		o.ProjectRoot = "."
	}
	abs, err := filepath.Abs(o.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}
	o.ProjectRoot = abs

	if o.TemplatesDir != "" && !filepath.IsAbs(o.TemplatesDir) {
		o.TemplatesDir = filepath.Join(o.ProjectRoot, o.TemplatesDir)
	}
	return nil
}
