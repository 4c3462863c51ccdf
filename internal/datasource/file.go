package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource serves a payload saved on disk. The repository identifier is
// only used as a label by callers.
type FileSource struct {
	Path string
}

// NewFileSource returns a source reading path (made absolute).
func NewFileSource(path string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve payload path: %w", err)
	}
	return &FileSource{Path: abs}, nil
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return data, nil
}
