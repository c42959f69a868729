package ai

import (
	"encoding/binary"
	"hash/fnv"
)

// MockEmbeddings returns deterministic pseudo-embeddings for the given texts.
// Each component is derived from an fnv hash of the text and component index,
// scaled into [-1, 1], so identical inputs always produce identical vectors.
func MockEmbeddings(texts []string, dim int) [][]float64 {
	if dim <= 0 {
		dim = 32
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		vec := make([]float64, dim)
		for d := 0; d < dim; d++ {
			h := fnv.New64a()
			h.Write([]byte(t))
			var idx [4]byte
			binary.BigEndian.PutUint32(idx[:], uint32(d))
			h.Write(idx[:])
			v := h.Sum64() % 2001
			vec[d] = (float64(v) - 1000.0) / 1000.0
		}
		out[i] = vec
	}
	return out
}
