package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/draftmill/draftmill/internal/helpers"
	"github.com/draftmill/draftmill/models"
)

var datePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// Writer persists rendered documents under a single output directory using
// dated, slugged filenames. Filenames sort chronologically, which is what
// Latest relies on.
type Writer struct {
	Dir string
	Now func() time.Time
}

// NewWriter creates a writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

// Filename reports the name a document for title would be stored under
// today, without writing anything.
func (w *Writer) Filename(title string) string {
	return fmt.Sprintf("%s-%s.html", w.Now().UTC().Format("2006-01-02"), helpers.Slugify(title))
}

// Write stores doc as YYYY-MM-DD-<slug>.html and returns the full path.
func (w *Writer) Write(title, doc string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(w.Dir, w.Filename(title))
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("writing document: %w", err)
	}
	return path, nil
}

// Latest returns the path of the lexicographically last *.html document,
// or models.ErrNoDocuments when the directory holds none.
func (w *Writer) Latest() (string, error) {
	matches, err := filepath.Glob(filepath.Join(w.Dir, "*.html"))
	if err != nil {
		return "", fmt.Errorf("listing output dir: %w", err)
	}
	if len(matches) == 0 {
		return "", models.ErrNoDocuments
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// TitleFromFilename derives a post title from a document path: the .html
// stem with its date prefix dropped and hyphens turned into spaces.
func TitleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), ".html")
	stem = datePrefixPattern.ReplaceAllString(stem, "")
	title := strings.TrimSpace(strings.ReplaceAll(stem, "-", " "))
	if title == "" {
		return "post"
	}
	return title
}
