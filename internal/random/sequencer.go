// Package random draws the permutations that order a session's questions and
// each question's choices. Two independent shuffles never share generator
// state: every Permute call receives its own Source, and seeded sources are
// derived from a base seed plus a discriminator.
package random

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// Source is one self-contained stream of pseudo-random decisions.
type Source struct {
	rng *rand.Rand
}

// NewEntropySource returns a non-reproducible source seeded from the clock.
func NewEntropySource() *Source {
	return &Source{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSource returns a source whose output is fully determined by the
// seed string: the same seed reproduces the same permutations.
func NewSeededSource(seed string) *Source {
	return &Source{rng: rand.New(rand.NewSource(SeedValue(seed)))}
}

// SeedValue expands a seed string into a generator seed (FNV-1a).
func SeedValue(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}

// ChoiceSeed composes the per-question discriminator so reshuffling one
// question's choices never perturbs the question order or another question.
func ChoiceSeed(base, questionID string) string {
	return base + ":" + questionID
}

// Permute returns a shuffled copy of items; the input is never mutated.
// Empty and single-element inputs come back unchanged.
func Permute[T any](items []T, src *Source) []T {
	out := make([]T, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}
	src.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
