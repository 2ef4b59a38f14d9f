package document

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"

	"github.com/configstore/xmlb"
)

// Source is a location an XML document can be read from.
type Source interface {
	// Location identifies the source in errors and is the base that
	// relative inclusion references are resolved against.
	Location() string

	// Open returns a reader over the document bytes.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a document from the local file system.
type FileSource struct {
	Path string
}

// NewFileSource returns a FileSource for path, made absolute when possible.
func NewFileSource(path string) *FileSource {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileSource{Path: path}
}

// Location returns the file path.
func (s *FileSource) Location() string { return s.Path }

// Open opens the file.
func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.Path)
}

// ReaderSource reads a document from an in-memory reader. Name is reported as
// its location.
type ReaderSource struct {
	Name   string
	Reader io.Reader
}

// NewBytesSource returns a source over data.
func NewBytesSource(name string, data []byte) *ReaderSource {
	return &ReaderSource{Name: name, Reader: bytes.NewReader(data)}
}

// Location returns the source name.
func (s *ReaderSource) Location() string { return s.Name }

// Open returns the wrapped reader.
func (s *ReaderSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(s.Reader), nil
}

// Load reads and parses the document behind src. Failures are returned as
// *xmlb.SourceLoadError.
func Load(ctx context.Context, src Source) (*etree.Document, error) {
	r, err := src.Open(ctx)
	if err != nil {
		return nil, &xmlb.SourceLoadError{Location: src.Location(), Err: err}
	}
	defer r.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &xmlb.SourceLoadError{Location: src.Location(), Err: err}
	}
	if doc.Root() == nil {
		return nil, &xmlb.SourceLoadError{Location: src.Location(), Err: errNoRoot}
	}
	return doc, nil
}
