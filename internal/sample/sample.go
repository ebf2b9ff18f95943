package sample

import "math/rand/v2"

// Pick returns min(n, len(items)) distinct elements chosen uniformly at random,
// in the order they were drawn. items is not modified.
func Pick[T any](r *rand.Rand, items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}

	pool := make([]T, len(items))
	copy(pool, items)
	// Partial Fisher-Yates: after i steps, pool[:i] is a uniform sample.
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}

// NewRand returns a generator seeded from the runtime's random source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
