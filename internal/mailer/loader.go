package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Loader defines the interface for loading mail template files.
type Loader interface {
	// Load reads a template by name and returns its text.
	Load(ctx context.Context, name string) (string, error)
}

// fileLoader implements Loader for templates on the local file system.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a file-based template loader rooted at dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "template-loader").Logger(),
	}
}

// Load reads a template file from the configured directory.
func (l *fileLoader) Load(ctx context.Context, name string) (string, error) {
	path := filepath.Join(l.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read template file")
		return "", fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	l.logger.Debug().Str("file", path).Int("bytes", len(data)).Msg("template loaded")

	return string(data), nil
}
