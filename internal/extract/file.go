package extract

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// FileExtractor reads uploaded files from disk. Only plain-text
// formats are parsed; binary formats that made it past the upload
// allowlist degrade to empty text so ingestion marks the source
// completed with zero chunks instead of failing the whole batch.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

var textExts = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true,
}

func (e *FileExtractor) Extract(ctx context.Context, location string) (string, error) {
	ext := filepath.Ext(location)
	if !textExts[ext] {
		slog.WarnContext(ctx, "no text parser for file extension, skipping content", "ext", ext)
		return "", nil
	}

	data, err := os.ReadFile(filepath.Clean(location))
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		slog.WarnContext(ctx, "file is not valid utf-8, skipping content", "path", filepath.Clean(location))
		return "", nil
	}

	return string(data), nil
}
