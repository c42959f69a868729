package kb

import (
	"context"
	"strings"
	"sync"
)

// Doc is one keyword-tagged support document.
// Keywords are lowercase trigger strings; Seq preserves insertion order so
// retrieval results come back in the knowledge base's natural order.
type Doc struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Content  string   `json:"content"`
	Seq      int      `json:"seq,omitempty"`
}

// Item is a search hit exposed over HTTP.
type Item struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Repo is the document store behind the retriever.
type Repo interface {
	// Add inserts a new document. If the same ID already exists, this behaves
	// as an upsert and keeps the document's original position.
	Add(ctx context.Context, d *Doc) error
	// Get returns the document by id if present.
	Get(ctx context.Context, id string) (*Doc, bool)
	// List returns all documents in insertion order.
	List(ctx context.Context) ([]*Doc, error)
	// Retrieve returns every document with at least one keyword that is a
	// substring of the lowercased query, in insertion order. An empty result
	// is valid and must be surfaced to the caller, not swallowed.
	Retrieve(ctx context.Context, query string) ([]*Doc, error)
	// Update replaces the document with the same ID (upsert).
	Update(ctx context.Context, d *Doc) error
	// Delete removes a document.
	Delete(ctx context.Context, id string) error
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// Matches reports whether doc d is a hit for the lowercased query.
// Substring match on each keyword, no stemming, no ranking.
func Matches(d *Doc, loweredQuery string) bool {
	for _, kw := range d.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(loweredQuery, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

type memoryRepo struct {
	mu    sync.RWMutex
	docs  map[string]*Doc
	order []string
	next  int
}

func NewMemoryRepo() Repo {
	return &memoryRepo{docs: map[string]*Doc{}}
}

func (m *memoryRepo) Add(ctx context.Context, d *Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.docs[d.ID]; ok {
		// upsert keeps position
		d.Seq = old.Seq
		m.docs[d.ID] = d
		return nil
	}
	d.Seq = m.next
	m.next++
	m.docs[d.ID] = d
	m.order = append(m.order, d.ID)
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, id string) (*Doc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	return d, ok
}

func (m *memoryRepo) List(ctx context.Context) ([]*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Doc, 0, len(m.order))
	for _, id := range m.order {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryRepo) Retrieve(ctx context.Context, query string) ([]*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowered := strings.ToLower(query)
	out := []*Doc{}
	for _, id := range m.order {
		d, ok := m.docs[id]
		if !ok {
			continue
		}
		if Matches(d, lowered) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryRepo) Update(ctx context.Context, d *Doc) error {
	return m.Add(ctx, d)
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return nil
	}
	delete(m.docs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memoryRepo) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Search is the HTTP-facing view over Retrieve: same keyword rule, snippets,
// bounded result list. total is the untruncated hit count.
func Search(ctx context.Context, repo Repo, q string, limit int) ([]*Item, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*Item{}, 0, nil
	}
	if limit <= 0 {
		limit = 10
	}
	docs, err := repo.Retrieve(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total := len(docs)
	if len(docs) > limit {
		docs = docs[:limit]
	}
	items := make([]*Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, &Item{ID: d.ID, Title: d.Title, Snippet: makeSnippet(d.Content, 120)})
	}
	return items, total, nil
}

func makeSnippet(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
