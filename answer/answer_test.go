package answer

import (
	"testing"

	"github.com/agnivade/levenshtein"

	"miladuel/words"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  שלג  ", "שלג"},
		{"בית   ספר", "בית ספר"},
		{"צה״ל", `צה"ל`},
		{"ג׳ירפה", "ג'ירפה"},
		{"Hello World", "hello world"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		guess    string
		target   string
		synonyms []string
		want     bool
	}{
		{"exact", "שלג", "שלג", nil, true},
		{"exact after trim", "  שלג ", "שלג", nil, true},
		{"one extra trailing char", "שלגg", "שלג", nil, true},
		{"one missing char", "של", "שלג", nil, true},
		{"one substitution", "שלף", "שלג", nil, true},
		{"completely different", "משהו אחר", "שלג", nil, false},
		{"two edits away", "של!!", "שלג", nil, false},
		{"synonym exact", "חמה", "שמש", []string{"חמה"}, true},
		{"synonym one typo", "חמהh", "שמש", []string{"חמה"}, true},
		{"not a synonym", "ירח", "שמש", []string{"חמה"}, false},
		{"empty guess", "", "שלג", nil, false},
		{"whitespace guess", "   ", "שלג", nil, false},
		{"quote variants", "צה״ל", `צה"ל`, nil, true},
		{"case fold", "SNOW", "snow", nil, true},
		{"multiword spacing", "בית   ספר", "בית ספר", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.guess, tt.target, tt.synonyms); got != tt.want {
				t.Errorf("Matches(%q, %q, %v) = %v, want %v",
					tt.guess, tt.target, tt.synonyms, got, tt.want)
			}
		})
	}
}

// Every string within one insert/delete/substitute of the target must be
// accepted, and the distance must count Hebrew letters, not bytes.
func TestMatchesSingleEditNeighborhood(t *testing.T) {
	target := "מגדלור"
	runes := []rune(target)

	// Deletions.
	for i := range runes {
		mutated := string(append(append([]rune{}, runes[:i]...), runes[i+1:]...))
		if !Matches(mutated, target, nil) {
			t.Errorf("deletion at %d (%q) not accepted", i, mutated)
		}
	}
	// Substitutions.
	for i := range runes {
		mutated := append([]rune{}, runes...)
		mutated[i] = 'x'
		if !Matches(string(mutated), target, nil) {
			t.Errorf("substitution at %d (%q) not accepted", i, string(mutated))
		}
	}
	// Insertions.
	for i := 0; i <= len(runes); i++ {
		mutated := append([]rune{}, runes[:i]...)
		mutated = append(mutated, 'x')
		mutated = append(mutated, runes[i:]...)
		if !Matches(string(mutated), target, nil) {
			t.Errorf("insertion at %d (%q) not accepted", i, string(mutated))
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"שלג", "שלגים"},
		{"", "שלג"},
		{"אבג", "גבא"},
		{"kitten", "sitting"},
	}
	for _, p := range pairs {
		ab := levenshtein.ComputeDistance(p[0], p[1])
		ba := levenshtein.ComputeDistance(p[1], p[0])
		if ab != ba {
			t.Errorf("distance(%q,%q)=%d but distance(%q,%q)=%d",
				p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestHints(t *testing.T) {
	w := words.Word{Word: "שלג", Hint: "יורד בחורף"}
	hints := Hints(w)
	if len(hints) != 2 {
		t.Fatalf("got %d hints, want 2", len(hints))
	}
	if hints[0] != "יורד בחורף" {
		t.Errorf("first hint = %q, want the authored hint", hints[0])
	}
	if hints[1] != "מתחיל באות ש" {
		t.Errorf("second hint = %q, want first-letter hint", hints[1])
	}
}

func TestSoloScore(t *testing.T) {
	tests := []struct {
		correct   bool
		hintsUsed int
		want      int
	}{
		{true, 0, 10},
		{true, 1, 7},
		{true, 2, 4},
		{true, 4, 0},
		{false, 0, 0},
	}
	for _, tt := range tests {
		if got := SoloScore(tt.correct, tt.hintsUsed); got != tt.want {
			t.Errorf("SoloScore(%v, %d) = %d, want %d",
				tt.correct, tt.hintsUsed, got, tt.want)
		}
	}
}
