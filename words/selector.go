package words

import (
	"crypto/rand"
	"encoding/binary"
)

// Quota is the per-tier cap: the first two tiers never contribute more
// than ten words each, and anything beyond goes to the hard tier.
const Quota = 10

// Quotas computes the tier split for a match of n words.
func Quotas(n int) (easy, medium, hard int) {
	third := (n + 2) / 3
	easy = min(Quota, third)
	medium = min(Quota, third)
	hard = n - easy - medium
	return easy, medium, hard
}

// Select produces the ordered word sequence for one session: a shuffled
// sample from each tier up to its quota, concatenated easy, medium, hard,
// with no word appearing twice. When a tier runs short, the remainder is
// backfilled uniformly from the unused words of the whole catalog. The
// result is shorter than n only when the catalog itself is.
func Select(c Catalog, n int) []Word {
	if n <= 0 {
		return nil
	}

	easyCount, mediumCount, hardCount := Quotas(n)

	used := make(map[string]bool, n)
	selected := make([]Word, 0, n)

	selected = append(selected, sample(c.Easy, Easy, easyCount, used)...)
	selected = append(selected, sample(c.Medium, Medium, mediumCount, used)...)
	selected = append(selected, sample(c.Hard, Hard, hardCount, used)...)

	// Backfill from any tier if quotas could not be met.
	for len(selected) < n {
		var remaining []Word
		for _, w := range c.All() {
			if !used[w.Word] {
				remaining = append(remaining, w)
			}
		}
		if len(remaining) == 0 {
			break
		}
		pick := remaining[randInt(len(remaining))]
		used[pick.Word] = true
		selected = append(selected, pick)
	}

	// Tiny n can overshoot: quotas are computed per tier and the easy and
	// medium tiers are filled before the (possibly negative) hard quota is
	// considered.
	if len(selected) > n {
		selected = selected[:n]
	}

	return selected
}

// DescriptionTier maps a word's position in the match to the description
// tier shown for it. The ranges assume Select's easy-medium-hard ordering.
func DescriptionTier(i int) Difficulty {
	switch {
	case i < Quota:
		return Easy
	case i < 2*Quota:
		return Medium
	default:
		return Hard
	}
}

// sample draws up to count words from pool, uniformly and without
// replacement, skipping words already in used.
func sample(pool []Word, d Difficulty, count int, used map[string]bool) []Word {
	shuffled := make([]Word, len(pool))
	copy(shuffled, pool)
	shuffle(shuffled)

	selected := make([]Word, 0, count)
	for _, w := range shuffled {
		if len(selected) >= count {
			break
		}
		if used[w.Word] {
			continue
		}
		w.Difficulty = d
		used[w.Word] = true
		selected = append(selected, w)
	}
	return selected
}

// Fisher-Yates shuffle using crypto/rand.
func shuffle(ws []Word) {
	for i := len(ws) - 1; i > 0; i-- {
		j := randInt(i + 1)
		ws[i], ws[j] = ws[j], ws[i]
	}
}

// randInt returns a uniform random int in [0, n), rejecting draws that
// would bias the modulo.
func randInt(n int) int {
	if n <= 1 {
		return 0
	}
	max := ^uint64(0) - (^uint64(0) % uint64(n))
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v <= max {
			return int(v % uint64(n))
		}
	}
}
