package kb

import (
	"context"
	"testing"
)

func seedTestRepo(t *testing.T) Repo {
	t.Helper()
	repo := NewMemoryRepo()
	docs := []Doc{
		{ID: "d1", Title: "Password reset", Keywords: []string{"password", "locked out"}, Content: "Use the self-service portal."},
		{ID: "d2", Title: "VPN", Keywords: []string{"vpn", "remote access"}, Content: "Install the VPN client."},
		{ID: "d3", Title: "Monitor", Keywords: []string{"black screen", "monitor"}, Content: "Try reseating cables."},
	}
	for i := range docs {
		if err := repo.Add(context.TODO(), &docs[i]); err != nil {
			t.Fatalf("add doc %d: %v", i, err)
		}
	}
	return repo
}

func TestRetrieveKeywordMatching(t *testing.T) {
	repo := seedTestRepo(t)

	docs, err := repo.Retrieve(context.TODO(), "I forgot my PASSWORD")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "d1" {
		t.Fatalf("expected only password doc, got %v", ids(docs))
	}

	// vpn-only doc must not match a password query
	for _, d := range docs {
		if d.ID == "d2" {
			t.Fatalf("vpn doc must not match password query")
		}
	}
}

func TestRetrieveNoMatchesIsEmptyNotNilError(t *testing.T) {
	repo := seedTestRepo(t)
	docs, err := repo.Retrieve(context.TODO(), "asdkfjh")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no hits, got %v", ids(docs))
	}
}

func TestRetrieveDeterministicInsertionOrder(t *testing.T) {
	repo := seedTestRepo(t)
	// query hitting d1 and d3
	q := "my password disappeared into a black screen"
	first, err := repo.Retrieve(context.TODO(), q)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(first) != 2 || first[0].ID != "d1" || first[1].ID != "d3" {
		t.Fatalf("expected [d1 d3] in insertion order, got %v", ids(first))
	}
	for i := 0; i < 5; i++ {
		again, err := repo.Retrieve(context.TODO(), q)
		if err != nil {
			t.Fatalf("retrieve %d: %v", i, err)
		}
		if len(again) != len(first) {
			t.Fatalf("non-deterministic result size on call %d", i)
		}
		for j := range again {
			if again[j].ID != first[j].ID {
				t.Fatalf("non-deterministic order on call %d", i)
			}
		}
	}
}

func TestUpsertKeepsPositionAndDelete(t *testing.T) {
	repo := seedTestRepo(t)
	if err := repo.Update(context.TODO(), &Doc{ID: "d1", Title: "Password reset v2", Keywords: []string{"password"}, Content: "Updated."}); err != nil {
		t.Fatalf("update: %v", err)
	}
	docs, _ := repo.Retrieve(context.TODO(), "password and black screen")
	if len(docs) != 2 || docs[0].ID != "d1" {
		t.Fatalf("updated doc must keep its original position, got %v", ids(docs))
	}
	if docs[0].Title != "Password reset v2" {
		t.Fatalf("update not applied: %s", docs[0].Title)
	}

	if err := repo.Delete(context.TODO(), "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs, _ = repo.Retrieve(context.TODO(), "password")
	if len(docs) != 0 {
		t.Fatalf("expected no hits after delete, got %v", ids(docs))
	}
	n, _ := repo.Count(context.TODO())
	if n != 2 {
		t.Fatalf("expected 2 docs after delete, got %d", n)
	}
}

func TestSearchLimitsAndSnippets(t *testing.T) {
	repo := seedTestRepo(t)
	items, total, err := Search(context.TODO(), repo, "password on a black screen", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 2 || len(items) != 1 {
		t.Fatalf("expected total=2 len=1, got total=%d len=%d", total, len(items))
	}

	items, total, err = Search(context.TODO(), repo, "   ", 10)
	if err != nil {
		t.Fatalf("search blank: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("blank query must return empty result")
	}
}

func TestDefaultCorpusCoversCoreTopics(t *testing.T) {
	repo := NewMemoryRepo()
	if err := Seed(context.TODO(), repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, _ := repo.Count(context.TODO())
	if n != 18 {
		t.Fatalf("expected 18 seeded docs, got %d", n)
	}
	for _, q := range []string{"I forgot my password", "vpn is down", "laptop screen is black"} {
		docs, err := repo.Retrieve(context.TODO(), q)
		if err != nil {
			t.Fatalf("retrieve %q: %v", q, err)
		}
		if len(docs) == 0 {
			t.Fatalf("expected a hit for %q in default corpus", q)
		}
	}
}

func ids(docs []*Doc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
