package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is one discoverable transcript: its workshop id, its path, and its
// detected format.
type Document struct {
	ID     string
	Path   string
	Format DocumentFormat
}

// DocumentSource lists and reads transcript documents. The filesystem source
// is the production implementation; tests substitute in-memory ones.
type DocumentSource interface {
	List(ctx context.Context) ([]Document, error)
	Read(ctx context.Context, doc Document) ([]byte, error)
}

// FSSource discovers workshop transcripts in a directory. Files are expected
// to be named <workshop-id>-<anything>.vtt or .pdf, e.g. WS1-genai-intro.vtt;
// the id is the uppercased prefix before the first dash.
type FSSource struct {
	dir string
}

var _ DocumentSource = (*FSSource)(nil)

func NewFSSource(dir string) *FSSource {
	return &FSSource{dir: dir}
}

func (s *FSSource) List(_ context.Context) ([]Document, error) {
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	var paths []string
	for _, pattern := range []string{"WS*.vtt", "WS*.pdf"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	documents := make([]Document, 0, len(paths))
	for _, path := range paths {
		format := DetectFormat(path)
		if format == FormatUnknown {
			continue
		}
		documents = append(documents, Document{
			ID:     DocumentID(path),
			Path:   path,
			Format: format,
		})
	}
	return documents, nil
}

func (s *FSSource) Read(_ context.Context, doc Document) ([]byte, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Path, err)
	}
	return data, nil
}

// DocumentID derives the workshop id from a transcript filename: the
// uppercased stem up to the first dash or underscore.
func DocumentID(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.IndexAny(stem, "-_"); i > 0 {
		stem = stem[:i]
	}
	return strings.ToUpper(stem)
}
