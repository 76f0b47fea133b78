package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/kevinwang15/schemaedit"
)

// store reads and writes the documents the bootstrap touches. In dry-run mode writes are
// logged and skipped.
type store struct {
	dryRun bool
	log    *zap.Logger
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// read returns the file content with newlines normalized, and the raw content.
func (s store) read(path string) (normalized, raw string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return schemaedit.NormalizeNewlines(string(b)), string(b), nil
}

// write atomically replaces path with content, creating parent directories.
func (s store) write(path, content string) error {
	if s.dryRun {
		s.log.Info("[dry-run] write", zap.String("path", path))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
