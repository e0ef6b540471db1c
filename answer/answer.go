// Package answer decides whether a guess counts as correct, with Hebrew
// quote normalization, single-typo tolerance, and synonym support.
package answer

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"miladuel/words"
)

// DuelAward is the flat score awarded for winning a word in duel mode,
// independent of player and position.
const DuelAward = 10

// HintPenalty is deducted per revealed hint in solo mode.
const HintPenalty = 3

var quotes = strings.NewReplacer(
	"״", `"`, // gershayim
	"׳", "'", // geresh
)

// Normalize canonicalizes a guess or target for comparison: Hebrew quote
// marks become their ASCII forms, whitespace runs collapse to a single
// space, edges are trimmed, and the result is case-folded.
func Normalize(s string) string {
	s = quotes.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// Matches reports whether guess should be accepted for target. A guess is
// accepted on an exact normalized match, within a single-character edit of
// the target, or the same against any synonym. Distance is computed over
// code points, so multi-byte Hebrew text counts letters, not bytes.
func Matches(guess, target string, synonyms []string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}

	if closeEnough(g, Normalize(target)) {
		return true
	}
	for _, syn := range synonyms {
		if closeEnough(g, Normalize(syn)) {
			return true
		}
	}
	return false
}

func closeEnough(guess, target string) bool {
	if target == "" {
		return false
	}
	if guess == target {
		return true
	}
	return levenshtein.ComputeDistance(guess, target) <= 1
}

// Hints returns the fixed hint sequence for a word: the authored hint,
// then the generated first-letter hint. The budget is the slice length.
func Hints(w words.Word) []string {
	first := ""
	for _, r := range w.Word {
		first = string(r)
		break
	}
	return []string{
		w.Hint,
		"מתחיל באות " + first,
	}
}

// SoloScore computes the single-player score for one word: a correct
// answer earns DuelAward minus HintPenalty per hint used, floored at zero.
func SoloScore(correct bool, hintsUsed int) int {
	if !correct {
		return 0
	}
	score := DuelAward - hintsUsed*HintPenalty
	if score < 0 {
		return 0
	}
	return score
}
