package tfidf

import "strings"

// Terms splits clean text on whitespace and emits every n-gram with
// min <= n <= max, n-grams joined by a single space. Order follows the
// text: all unigrams first, then bigrams, and so on.
func Terms(clean string, min, max int) []string {
	tokens := strings.Fields(clean)
	if len(tokens) == 0 || min < 1 || max < min {
		return nil
	}

	var out []string
	for n := min; n <= max; n++ {
		if n > len(tokens) {
			break
		}
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
