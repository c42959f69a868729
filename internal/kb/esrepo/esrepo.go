// Package esrepo provides an Elasticsearch-backed kb.Repo. Documents are
// stored in a single index; retrieval pulls the (small, bounded) corpus in
// insertion order and applies the same keyword rule as the memory repo, so
// the retrieval contract is identical across backends.
package esrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/bpispark/sparkdesk/internal/kb"
)

// Config for the Elasticsearch repo.
// Addresses: list of http(s) endpoints, e.g. ["http://localhost:9200"].
// Index: index name, default "kb_docs". Basic auth optional.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
}

type Repo struct {
	cli   *elasticsearch.Client
	index string
}

func New(cfg Config) (*Repo, error) {
	if len(cfg.Addresses) == 0 {
		cfg.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Index == "" {
		cfg.Index = "kb_docs"
	}
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}
	if cfg.Username != "" || cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	cli, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, err
	}
	return &Repo{cli: cli, index: cfg.Index}, nil
}

// ensureIndex creates the index with a minimal mapping if it doesn't exist.
// keywords is a raw keyword field: matching happens client-side, ES only
// stores and orders the corpus.
func (r *Repo) ensureIndex(ctx context.Context) error {
	res, err := r.cli.Indices.Exists([]string{r.index})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	body := `{
		"mappings": {"properties": {
			"title":    {"type": "text"},
			"keywords": {"type": "keyword"},
			"content":  {"type": "text"},
			"seq":      {"type": "integer"}
		}}
	}`
	cr := esapi.IndicesCreateRequest{Index: r.index, Body: strings.NewReader(body)}
	cres, err := cr.Do(ctx, r.cli)
	if err != nil {
		return err
	}
	defer cres.Body.Close()
	if cres.StatusCode >= 300 {
		return fmt.Errorf("create index failed: %s", cres.String())
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, d *kb.Doc) error {
	if d == nil || d.ID == "" {
		return errors.New("invalid doc")
	}
	if err := r.ensureIndex(ctx); err != nil {
		return err
	}
	// keep position on upsert, assign the next slot otherwise
	if old, ok := r.Get(ctx, d.ID); ok {
		d.Seq = old.Seq
	} else if d.Seq == 0 {
		n, err := r.Count(ctx)
		if err != nil {
			return err
		}
		d.Seq = n
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	ir := esapi.IndexRequest{Index: r.index, DocumentID: d.ID, Body: strings.NewReader(string(payload)), Refresh: "true"}
	res, err := ir.Do(ctx, r.cli)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("index failed: %s", res.String())
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*kb.Doc, bool) {
	gr := esapi.GetRequest{Index: r.index, DocumentID: id}
	res, err := gr.Do(ctx, r.cli)
	if err != nil {
		return nil, false
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, false
	}
	var h struct {
		Source kb.Doc `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		return nil, false
	}
	return &h.Source, true
}

// List returns all documents ordered by seq (insertion order).
func (r *Repo) List(ctx context.Context) ([]*kb.Doc, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return nil, err
	}
	body := `{"size": 1000, "query": {"match_all": {}}, "sort": [{"seq": "asc"}]}`
	sr := esapi.SearchRequest{Index: []string{r.index}, Body: strings.NewReader(body)}
	res, err := sr.Do(ctx, r.cli)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("list failed: %s", res.String())
	}
	var resp struct {
		Hits struct {
			Hits []struct {
				Source kb.Doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, err
	}
	out := make([]*kb.Doc, 0, len(resp.Hits.Hits))
	for i := range resp.Hits.Hits {
		d := resp.Hits.Hits[i].Source
		out = append(out, &d)
	}
	return out, nil
}

// Retrieve applies the keyword rule over the stored corpus in seq order.
func (r *Repo) Retrieve(ctx context.Context, query string) ([]*kb.Doc, error) {
	docs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	lowered := strings.ToLower(query)
	out := []*kb.Doc{}
	for _, d := range docs {
		if kb.Matches(d, lowered) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, d *kb.Doc) error {
	return r.Add(ctx, d)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	dr := esapi.DeleteRequest{Index: r.index, DocumentID: id, Refresh: "true"}
	res, err := dr.Do(ctx, r.cli)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete failed: %s", res.String())
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	if err := r.ensureIndex(ctx); err != nil {
		return 0, err
	}
	cr := esapi.CountRequest{Index: []string{r.index}}
	res, err := cr.Do(ctx, r.cli)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return 0, fmt.Errorf("count failed: %s", res.String())
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Ping performs a lightweight health check against the ES cluster.
// The call is bounded when the caller supplied no deadline.
func (r *Repo) Ping(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
	}
	res, err := r.cli.Info(r.cli.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("es info status %d", res.StatusCode)
	}
	return nil
}

// Info returns minimal KB index information for diagnostics.
func (r *Repo) Info(ctx context.Context) (map[string]any, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return map[string]any{"backend": "es", "index": r.index}, nil
	}
	return map[string]any{"backend": "es", "index": r.index, "docs": n}, nil
}
