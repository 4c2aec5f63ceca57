package corpus

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
	"github.com/cognicore/ulasan/pkg/ulasan/label"
)

// Split holds ascending row positions for each partition.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions positions 0..len(labels)-1 so that each class
// keeps its share in both parts. Each class is shuffled independently with a
// PRNG seeded by seed; round(n_c*(1-trainRatio)) of its items go to test,
// leaving at least one in train. The same labels, ratio and seed always give
// the same split.
func StratifiedSplit(labels []label.Label, trainRatio float64, seed int64) (Split, error) {
	if !(trainRatio > 0 && trainRatio < 1) {
		return Split{}, fmt.Errorf("%w: split ratio must be in (0,1), got %v", internalerr.ErrInvalidConfig, trainRatio)
	}

	var byClass [label.Count][]int
	for i, l := range labels {
		k := l.Index()
		if k < 0 {
			return Split{}, fmt.Errorf("%w: position %d has invalid label %s", internalerr.ErrDataFormat, i, l)
		}
		byClass[k] = append(byClass[k], i)
	}

	rng := rand.New(rand.NewSource(seed))
	var s Split
	for _, idx := range byClass {
		if len(idx) == 0 {
			continue
		}
		shuffled := append([]int(nil), idx...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		nTest := int(math.Round(float64(len(shuffled)) * (1 - trainRatio)))
		nTest = min(nTest, len(shuffled)-1)
		s.Test = append(s.Test, shuffled[:nTest]...)
		s.Train = append(s.Train, shuffled[nTest:]...)
	}
	sort.Ints(s.Train)
	sort.Ints(s.Test)
	return s, nil
}

// Proportions returns each class's share among labels at idx, indexed by
// label.Index().
func Proportions(labels []label.Label, idx []int) [label.Count]float64 {
	var out [label.Count]float64
	if len(idx) == 0 {
		return out
	}
	for _, i := range idx {
		if k := labels[i].Index(); k >= 0 {
			out[k]++
		}
	}
	for k := range out {
		out[k] /= float64(len(idx))
	}
	return out
}
