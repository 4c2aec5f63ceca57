package tfidf

// Counter accumulates document frequencies over a corpus.
type Counter struct {
	N  int64            // total number of documents
	DF map[string]int64 // documents containing each term
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{DF: make(map[string]int64)}
}

// AddDocument counts each distinct term of one document once.
func (c *Counter) AddDocument(terms []string) {
	c.N++
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		c.DF[t]++
	}
}

// Merge adds another counter's totals. Counting is associative, so partial
// counters built over disjoint chunks merge to the sequential result.
func (c *Counter) Merge(other *Counter) {
	c.N += other.N
	for t, n := range other.DF {
		c.DF[t] += n
	}
}

// TotalDocs returns the number of documents added.
func (c *Counter) TotalDocs() int64 {
	return c.N
}

// TermCount returns the document frequency of a term.
func (c *Counter) TermCount(t string) int64 {
	return c.DF[t]
}

// UniqueTerms returns the number of distinct terms seen.
func (c *Counter) UniqueTerms() int {
	return len(c.DF)
}
