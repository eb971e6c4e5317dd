package catalog

import (
	"context"
	"fmt"
	"os"
)

// Source yields raw player elements in a stable order.
type Source interface {
	Name() string
	Elements(ctx context.Context) ([]Element, error)
}

// Load fetches elements from src and builds a validated catalog.
func Load(ctx context.Context, src Source, layout Layout) (*Catalog, error) {
	elements, err := src.Elements(ctx)
	if err != nil {
		return nil, err
	}
	return FromElements(elements, layout)
}

// FileSource reads elements from a JSON file on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string {
	return "file:" + f.Path
}

func (f *FileSource) Elements(ctx context.Context) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &DataLoadError{Index: -1, Err: fmt.Errorf("read %s: %w", f.Path, err)}
	}
	return DecodeElements(data)
}
