package bootstrap

import "errors"

var (
	// ErrProjectRootMissing is returned when the project directory does not exist.
	ErrProjectRootMissing = errors.New("project root does not exist")
	// ErrOpenSpecNotFound is returned when no openspec executable can be resolved.
	ErrOpenSpecNotFound = errors.New("unable to find 'openspec'")
	// ErrNotInitialized is returned when openspec/ is missing and init is disabled.
	ErrNotInitialized = errors.New("no openspec/ directory found")
	// ErrSchemaFileMissing is returned when schema.yaml is absent after forking.
	ErrSchemaFileMissing = errors.New("missing schema.yaml")
	// ErrCommandStart wraps failures to launch a subprocess.
	ErrCommandStart = errors.New("command failed to start")
	// ErrCommandFailed is returned when a subprocess exits non-zero.
	ErrCommandFailed = errors.New("command failed")
	// ErrPatchBrokeSchema is returned when the patched schema no longer parses.
	ErrPatchBrokeSchema = errors.New("patched schema.yaml no longer parses")
	// ErrSnippetInvalid wraps embedded snippets that fail their shape check.
	ErrSnippetInvalid = errors.New("invalid artifact snippet")
)
