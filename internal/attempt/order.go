// internal/attempt/order.go
package attempt

import (
	"math/rand"
	"time"
)

// QuestionOrder produces the presentation order of question indices for one
// attempt session: the identity order, or a Fisher-Yates permutation of
// {0..n-1} when shuffling is on. The permutation is always a bijection.
func QuestionOrder(shuffle bool, n int, seed int64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if !shuffle {
		return order
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// OrderSeed derives a per-attempt shuffle seed. The order is not persisted;
// seeding from the attempt identity keeps it stable across reloads of the same
// attempt while still differing between attempts.
func OrderSeed(attemptID uint, startedAt time.Time) int64 {
	return int64(attemptID)<<32 ^ startedAt.Unix()
}
