package archive

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/draftmill/draftmill/models"
)

// Document is what gets indexed per published post. Slug is the output
// file stem (date prefix included) so links resolve next to each other.
type Document struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Keywords string `json:"keywords"`
}

// Index is a full-text index over published posts, used to pick related
// links for new articles.
type Index struct {
	bleve bleve.Index
	mu    sync.RWMutex
}

// OpenIndex opens the index at path, creating it on first use.
func OpenIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx}, nil
}

// NewMemIndex builds an in-memory index. Nothing survives the process.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{bleve: idx}, nil
}

// Add indexes a published post, replacing any previous entry for the slug.
func (ix *Index) Add(doc Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.bleve.Index(doc.Slug, doc)
}

// Related returns up to k posts matching the query text, skipping the
// excluded slug. The query is typically the new draft's title plus keywords.
func (ix *Index) Related(queryText, exclude string, k int) ([]models.RelatedLink, error) {
	if k <= 0 || strings.TrimSpace(queryText) == "" {
		return nil, nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	query := bleve.NewQueryStringQuery(queryText)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	searchReq.Fields = []string{"title"}
	res, err := ix.bleve.Search(searchReq)
	if err != nil {
		return nil, err
	}

	var out []models.RelatedLink
	for _, hit := range res.Hits {
		if hit.ID == exclude {
			continue
		}
		title, _ := hit.Fields["title"].(string)
		if title == "" {
			title = titleFromSlug(hit.ID)
		}
		out = append(out, models.RelatedLink{Title: title, Slug: hit.ID})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// Count reports how many posts are indexed.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.bleve.DocCount()
}

func (ix *Index) Close() error {
	return ix.bleve.Close()
}

// QueryFor builds the related-links query text for a draft: its title
// plus the comma-separated keywords flattened to terms.
func QueryFor(draft models.Draft) string {
	var parts []string
	if t := strings.TrimSpace(draft.Title); t != "" {
		parts = append(parts, t)
	}
	for _, kw := range strings.Split(draft.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

func titleFromSlug(slug string) string {
	stem := slug
	if len(stem) > 11 && stem[4] == '-' && stem[7] == '-' && stem[10] == '-' {
		stem = stem[11:]
	}
	return strings.ReplaceAll(stem, "-", " ")
}
