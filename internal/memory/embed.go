package memory

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// hashEmbedding returns a deterministic local embedding function.
//
// Tokens are feature-hashed into a fixed-size vector and L2-normalized.
// This keeps the store fully local with no model dependency; identical text
// always produces identical vectors.
func hashEmbedding(dim int) chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, dim)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%uint32(dim)]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			// Empty input still needs a valid unit vector.
			vec[0] = 1
			return vec, nil
		}

		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}
