package words

import (
	"fmt"
	"testing"
)

func catalogOf(easy, medium, hard int) Catalog {
	var c Catalog
	for i := 0; i < easy; i++ {
		c.Easy = append(c.Easy, Word{Word: fmt.Sprintf("easy-%d", i)})
	}
	for i := 0; i < medium; i++ {
		c.Medium = append(c.Medium, Word{Word: fmt.Sprintf("medium-%d", i)})
	}
	for i := 0; i < hard; i++ {
		c.Hard = append(c.Hard, Word{Word: fmt.Sprintf("hard-%d", i)})
	}
	return c
}

func TestQuotas(t *testing.T) {
	tests := []struct {
		n                 int
		easy, medium, hard int
	}{
		{30, 10, 10, 10},
		{20, 7, 7, 6},
		{9, 3, 3, 3},
		{45, 10, 10, 25},
		{1, 1, 1, -1},
	}
	for _, tt := range tests {
		easy, medium, hard := Quotas(tt.n)
		if easy != tt.easy || medium != tt.medium || hard != tt.hard {
			t.Errorf("Quotas(%d) = %d/%d/%d, want %d/%d/%d",
				tt.n, easy, medium, hard, tt.easy, tt.medium, tt.hard)
		}
	}
}

func TestSelect_NoDuplicatesExactCount(t *testing.T) {
	c := catalogOf(15, 15, 15)
	got := Select(c, 30)
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	seen := make(map[string]bool)
	for _, w := range got {
		if seen[w.Word] {
			t.Errorf("duplicate word %q", w.Word)
		}
		seen[w.Word] = true
	}
}

func TestSelect_TierOrdering(t *testing.T) {
	c := catalogOf(12, 12, 12)
	got := Select(c, 30)
	for i, w := range got {
		want := DescriptionTier(i)
		if w.Difficulty != want {
			t.Errorf("position %d: difficulty %s, want %s", i, w.Difficulty, want)
		}
	}
}

func TestSelect_StableComposition(t *testing.T) {
	c := catalogOf(15, 15, 15)
	for run := 0; run < 5; run++ {
		got := Select(c, 30)
		counts := map[Difficulty]int{}
		for _, w := range got {
			counts[w.Difficulty]++
		}
		if counts[Easy] != 10 || counts[Medium] != 10 || counts[Hard] != 10 {
			t.Fatalf("composition %v, want 10/10/10", counts)
		}
	}
}

func TestSelect_DifferentOrderings(t *testing.T) {
	c := catalogOf(30, 30, 30)
	first := Select(c, 30)
	// With 30 words drawn from pools of 30, ten identical runs in a row
	// would mean the shuffle is broken.
	for run := 0; run < 10; run++ {
		next := Select(c, 30)
		for i := range next {
			if next[i].Word != first[i].Word {
				return
			}
		}
	}
	t.Error("ten runs produced identical orderings")
}

func TestSelect_BackfillFromOtherTiers(t *testing.T) {
	// Only 2 easy words: the easy quota of 10 cannot be met, so the
	// remainder must come from the other tiers without duplicates.
	c := catalogOf(2, 20, 20)
	got := Select(c, 30)
	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	seen := make(map[string]bool)
	for _, w := range got {
		if seen[w.Word] {
			t.Fatalf("duplicate word %q after backfill", w.Word)
		}
		seen[w.Word] = true
	}
}

func TestSelect_ShortCatalog(t *testing.T) {
	c := catalogOf(3, 2, 1)
	got := Select(c, 30)
	if len(got) != 6 {
		t.Errorf("len = %d, want 6 (entire catalog)", len(got))
	}
}

func TestSelect_ZeroAndNegative(t *testing.T) {
	c := catalogOf(5, 5, 5)
	if got := Select(c, 0); got != nil {
		t.Errorf("Select(c, 0) = %v, want nil", got)
	}
	if got := Select(c, -3); got != nil {
		t.Errorf("Select(c, -3) = %v, want nil", got)
	}
}

func TestDescriptionTier(t *testing.T) {
	tests := []struct {
		i    int
		want Difficulty
	}{
		{0, Easy}, {9, Easy}, {10, Medium}, {19, Medium}, {20, Hard}, {29, Hard},
	}
	for _, tt := range tests {
		if got := DescriptionTier(tt.i); got != tt.want {
			t.Errorf("DescriptionTier(%d) = %s, want %s", tt.i, got, tt.want)
		}
	}
}

func TestEmbeddedCatalogParses(t *testing.T) {
	c, err := parse(embeddedWords)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Easy) < 10 || len(c.Medium) < 10 || len(c.Hard) < 10 {
		t.Errorf("embedded catalog tiers %d/%d/%d, want at least 10 each",
			len(c.Easy), len(c.Medium), len(c.Hard))
	}
	for _, w := range c.All() {
		if w.Word == "" || w.Hint == "" {
			t.Errorf("incomplete entry %+v", w)
		}
		if w.Description(Easy) == "" {
			t.Errorf("word %q missing easy description", w.Word)
		}
	}
}
