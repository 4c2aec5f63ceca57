// Package analytics aggregates predicted labels and clean texts into the
// summary shown after batch prediction.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/label"
)

// DefaultMinTermLen drops tokens of three runes or fewer from term counts.
const DefaultMinTermLen = 4

// DefaultStopwords are filler words too frequent to name an issue.
var DefaultStopwords = []string{
	"dan", "yang", "tidak", "dengan", "untuk", "pada",
	"ini", "itu", "saya", "barang", "produk",
}

// Analyzer aggregates per-label token statistics. Not safe for concurrent
// use.
type Analyzer struct {
	totalDocs    int64
	labelDocs    [label.Count]int64
	termFreq     [label.Count]map[string]int64 // token counts, for word clouds
	tokenDF      map[string]int64
	tokenLabels  map[string]*[label.Count]int64
	bigramCounts [label.Count]map[pair]int64 // adjacent token pairs only
	stop         map[string]struct{}
	minLen       int
}

// NewAnalyzer creates an analyzer with the default stopwords and minimum
// term length.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWith(DefaultStopwords, DefaultMinTermLen)
}

// NewAnalyzerWith creates an analyzer with custom filtering. minLen below 1
// is treated as 1.
func NewAnalyzerWith(stopwords []string, minLen int) *Analyzer {
	a := &Analyzer{
		tokenDF:     make(map[string]int64),
		tokenLabels: make(map[string]*[label.Count]int64),
		stop:        make(map[string]struct{}, len(stopwords)),
		minLen:      max(minLen, 1),
	}
	for k := range a.termFreq {
		a.termFreq[k] = make(map[string]int64)
		a.bigramCounts[k] = make(map[pair]int64)
	}
	for _, w := range stopwords {
		a.stop[strings.ToLower(w)] = struct{}{}
	}
	return a
}

func (a *Analyzer) keep(tok string) bool {
	if _, stop := a.stop[tok]; stop {
		return false
	}
	return len([]rune(tok)) >= a.minLen
}

// Process consumes one clean text with its label. Invalid labels are ignored.
func (a *Analyzer) Process(clean string, l label.Label) {
	k := l.Index()
	if k < 0 {
		return
	}
	a.totalDocs++
	a.labelDocs[k]++

	tokens := strings.Fields(clean)
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if !a.keep(tok) {
			continue
		}
		a.termFreq[k][tok]++
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		a.tokenDF[tok]++
		if a.tokenLabels[tok] == nil {
			a.tokenLabels[tok] = new([label.Count]int64)
		}
		a.tokenLabels[tok][k]++
	}

	// Adjacent pairs, both sides kept.
	for i := 0; i+1 < len(tokens); i++ {
		if a.keep(tokens[i]) && a.keep(tokens[i+1]) {
			a.bigramCounts[k][pair{A: tokens[i], B: tokens[i+1]}]++
		}
	}
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalDocs    int64
	LabelDocs    [label.Count]int64
	TermFreq     [label.Count]map[string]int64
	TokenDF      map[string]int64
	TokenLabels  map[string][label.Count]int64
	BigramCounts [label.Count]map[pair]int64
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		TotalDocs:   a.totalDocs,
		LabelDocs:   a.labelDocs,
		TokenDF:     make(map[string]int64, len(a.tokenDF)),
		TokenLabels: make(map[string][label.Count]int64, len(a.tokenLabels)),
	}
	for tok, df := range a.tokenDF {
		s.TokenDF[tok] = df
	}
	for tok, counts := range a.tokenLabels {
		s.TokenLabels[tok] = *counts
	}
	for k := range a.termFreq {
		s.TermFreq[k] = make(map[string]int64, len(a.termFreq[k]))
		for tok, c := range a.termFreq[k] {
			s.TermFreq[k][tok] = c
		}
		s.BigramCounts[k] = make(map[pair]int64, len(a.bigramCounts[k]))
		for p, c := range a.bigramCounts[k] {
			s.BigramCounts[k][p] = c
		}
	}
	return s
}

// Share is one label's slice of the distribution.
type Share struct {
	Label   label.Label `json:"label"`
	Count   int64       `json:"count"`
	Percent float64     `json:"percent"`
}

// Distribution returns counts and percentages in POSITIVE, NEUTRAL,
// NEGATIVE order.
func (s Stats) Distribution() []Share {
	out := make([]Share, label.Count)
	for k, l := range label.All {
		out[k] = Share{Label: l, Count: s.LabelDocs[k]}
		if s.TotalDocs > 0 {
			out[k].Percent = 100 * float64(s.LabelDocs[k]) / float64(s.TotalDocs)
		}
	}
	return out
}

// Dominant returns POSITIVE or NEGATIVE when that label strictly outnumbers
// both others, and NEUTRAL otherwise.
func (s Stats) Dominant() label.Label {
	pos := s.LabelDocs[label.Positive.Index()]
	net := s.LabelDocs[label.Neutral.Index()]
	neg := s.LabelDocs[label.Negative.Index()]
	switch {
	case pos > net && pos > neg:
		return label.Positive
	case neg > pos && neg > net:
		return label.Negative
	default:
		return label.Neutral
	}
}

// TermStat is a term's frequency within one label.
type TermStat struct {
	Term string `json:"term"`
	Freq int64  `json:"freq"`
	// Entropy of the term's document counts across labels, scaled to [0,1].
	// Low values mark terms specific to one label.
	Entropy float64 `json:"entropy"`
}

// TopTerms returns the k most frequent terms in documents labeled l, ties
// broken alphabetically. k <= 0 returns all.
func (s Stats) TopTerms(l label.Label, k int) []TermStat {
	idx := l.Index()
	if idx < 0 {
		return nil
	}
	out := make([]TermStat, 0, len(s.TermFreq[idx]))
	for tok, freq := range s.TermFreq[idx] {
		out = append(out, TermStat{Term: tok, Freq: freq, Entropy: entropy(s.TokenLabels[tok])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq == out[j].Freq {
			return out[i].Term < out[j].Term
		}
		return out[i].Freq > out[j].Freq
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func entropy(counts [label.Count]int64) float64 {
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(label.Count))
}

// PairStat describes an adjacent word pair within one label.
type PairStat struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	PMI         float64 `json:"pmi"`
	BigramFreq  int64   `json:"bigram_freq"`
	PhraseScore float64 `json:"phrase_score"`
}

// TopPairs ranks adjacent pairs in documents labeled l by frequency times
// document-level PMI, keeping pairs with PMI >= minPMI.
func (s Stats) TopPairs(l label.Label, limit int, minPMI float64) []PairStat {
	idx := l.Index()
	if idx < 0 || s.TotalDocs == 0 {
		return nil
	}
	var out []PairStat
	for p, freq := range s.BigramCounts[idx] {
		dfA, dfB := s.TokenDF[p.A], s.TokenDF[p.B]
		if freq == 0 || dfA == 0 || dfB == 0 {
			continue
		}
		pmi := computePMI(freq, dfA, dfB, s.TotalDocs)
		if pmi < minPMI {
			continue
		}
		out = append(out, PairStat{
			A:           p.A,
			B:           p.B,
			PMI:         pmi,
			BigramFreq:  freq,
			PhraseScore: float64(freq) * pmi,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PhraseScore == out[j].PhraseScore {
			if out[i].BigramFreq == out[j].BigramFreq {
				return out[i].A+" "+out[i].B < out[j].A+" "+out[j].B
			}
			return out[i].BigramFreq > out[j].BigramFreq
		}
		return out[i].PhraseScore > out[j].PhraseScore
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func computePMI(pairCount, dfA, dfB, totalDocs int64) float64 {
	if dfA == 0 || dfB == 0 || totalDocs == 0 {
		return 0
	}
	smooth := 1.0
	numerator := (float64(pairCount) + smooth) / float64(totalDocs)
	denominator := ((float64(dfA) + smooth) / float64(totalDocs)) * ((float64(dfB) + smooth) / float64(totalDocs))
	return math.Log(numerator / denominator)
}

// Summary is the JSON digest printed after batch prediction.
type Summary struct {
	Total         int64       `json:"total"`
	Distribution  []Share     `json:"distribution"`
	Dominant      label.Label `json:"dominant"`
	NegativeTerms []TermStat  `json:"negative_terms"`
	NegativePairs []PairStat  `json:"negative_pairs"`
}

// Summarize reports the distribution and the top k terms and pairs of
// negative reviews.
func (s Stats) Summarize(k int) Summary {
	return Summary{
		Total:         s.TotalDocs,
		Distribution:  s.Distribution(),
		Dominant:      s.Dominant(),
		NegativeTerms: s.TopTerms(label.Negative, k),
		NegativePairs: s.TopPairs(label.Negative, k, 0),
	}
}

type pair struct {
	A string
	B string
}
