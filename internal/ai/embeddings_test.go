package ai

import "testing"

func TestMockEmbeddingsDeterministic(t *testing.T) {
	a := MockEmbeddings([]string{"hello", "world"}, 8)
	b := MockEmbeddings([]string{"hello", "world"}, 8)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 vectors")
	}
	for i := range a {
		if len(a[i]) != 8 {
			t.Fatalf("vector %d has dim %d", i, len(a[i]))
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("non-deterministic component (%d,%d)", i, j)
			}
			if a[i][j] < -1 || a[i][j] > 1 {
				t.Fatalf("component (%d,%d) out of range: %f", i, j, a[i][j])
			}
		}
	}
}

func TestMockEmbeddingsDefaultDim(t *testing.T) {
	v := MockEmbeddings([]string{"x"}, 0)
	if len(v) != 1 || len(v[0]) != 32 {
		t.Fatalf("expected default dim 32, got %d", len(v[0]))
	}
}
