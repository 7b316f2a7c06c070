// Package fulltext supplies document fulltext to the summarization stage.
// An empty string means "no fulltext for this document" and is never an
// error; providers reserve errors for infrastructure failures.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// tableStore is the fulltext-fetch surface of the relational store.
type tableStore interface {
	Fulltext(ctx context.Context, docID string) (string, error)
}

// TableProvider serves fulltext from the relational store's fulltext table.
type TableProvider struct {
	store tableStore
}

// NewTableProvider wraps the relational store.
func NewTableProvider(store tableStore) *TableProvider {
	return &TableProvider{store: store}
}

// Fetch returns the document's fulltext, or "" when the table has no row.
func (p *TableProvider) Fetch(ctx context.Context, docID string) (string, error) {
	return p.store.Fulltext(ctx, docID)
}

// DirProvider serves fulltext from one .txt file per document. Document
// ids are DOIs and contain path separators, so file names flatten them.
type DirProvider struct {
	dir string
}

// NewDirProvider serves from the given directory.
func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

// Fetch reads "<dir>/<flattened id>.txt". A missing file means no
// fulltext; any other read failure is an error.
func (p *DirProvider) Fetch(_ context.Context, docID string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(p.dir, FileName(docID)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read fulltext of %s: %w", docID, err)
	}
	return string(raw), nil
}

// FileName flattens a document id into a single path element.
func FileName(docID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return r.Replace(docID) + ".txt"
}
