package index

import "fmt"

// Validate checks that each book's unigram table is the histogram of its
// token sequence and that works and the corpus are exact sums of their
// books. Build and Load both run it.
func (idx *Index) Validate() error {
	corpusCounts := make(map[string]int, len(idx.Unigrams))
	corpusTotal := 0
	for _, w := range idx.Works {
		workCounts := make(map[string]int, len(w.Unigrams))
		workTotal := 0
		for _, b := range w.Books {
			if b.Work != w.Name {
				return fmt.Errorf("book %q belongs to %q but is listed under %q", b.Name, b.Work, w.Name)
			}
			if len(b.Tokens) != b.TotalTokens {
				return fmt.Errorf("book %q: %d tokens in sequence, total_tokens %d", b.Name, len(b.Tokens), b.TotalTokens)
			}
			counts := make(map[string]int, len(b.Unigrams))
			for _, t := range b.Tokens {
				if t == "" || t == Boundary {
					return fmt.Errorf("book %q: invalid token %q in sequence", b.Name, t)
				}
				counts[t]++
			}
			if err := sameCounts(counts, b.Unigrams); err != nil {
				return fmt.Errorf("book %q: unigram table is not the histogram of its tokens: %w", b.Name, err)
			}
			for t, n := range b.Unigrams {
				workCounts[t] += n
			}
			workTotal += b.TotalTokens
		}
		if workTotal != w.TotalTokens {
			return fmt.Errorf("work %q: books total %d, work total %d", w.Name, workTotal, w.TotalTokens)
		}
		if err := sameCounts(workCounts, w.Unigrams); err != nil {
			return fmt.Errorf("work %q: %w", w.Name, err)
		}
		for t, n := range w.Unigrams {
			corpusCounts[t] += n
		}
		corpusTotal += w.TotalTokens
	}
	if corpusTotal != idx.TotalTokens {
		return fmt.Errorf("corpus: works total %d, corpus total %d", corpusTotal, idx.TotalTokens)
	}
	if err := sameCounts(corpusCounts, idx.Unigrams); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	return nil
}

func sameCounts(want, got map[string]int) error {
	if len(want) != len(got) {
		return fmt.Errorf("vocabulary size %d, want %d", len(got), len(want))
	}
	for t, n := range want {
		if got[t] != n {
			return fmt.Errorf("count for %q is %d, want %d", t, got[t], n)
		}
	}
	return nil
}
