package searchers

import (
	"github.com/chewxy/math32"
	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	"k8s.io/klog/v2"
	"math/rand/v2"
	"slices"
)

// Default values for the Selector.
const (
	DefaultNearBestRatio = 0.95
	DefaultTemperature   = 1.0
	DefaultThreshold     = 0.7
)

// Softmax returns the probabilities of the values divided by temperature.
// A temperature <= 0 is taken as 1.
func Softmax(values []float32, temperature float32) (probs []float32) {
	if len(values) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}
	probs = make([]float32, len(values))
	var sum float32

	// Subtracting the max keeps the probabilities the same, but it avoids overflowing the
	// exponentials for the large win/loss scores.
	maxValue := slices.Max(values)
	for ii, value := range values {
		probs[ii] = math32.Exp((value - maxValue) / temperature)
		sum += probs[ii]
	}
	for ii := range probs {
		probs[ii] /= sum
	}
	return
}

// Entropy returns the Shannon entropy, in bits, of the probability distribution.
func Entropy(probs []float32) float32 {
	var entropy float32
	for _, p := range probs {
		if p > 0 {
			entropy -= p * math32.Log2(p)
		}
	}
	return entropy
}

// NearBest returns the moves whose score is within the band of the best score:
// score >= best - (1-ratio)*|best|. Order is preserved.
//
// The band uses |best| so it also works for negative scores, where best*ratio would be
// larger than best itself.
func NearBest(scored []ScoredMove, ratio float32) []ScoredMove {
	if len(scored) == 0 {
		return nil
	}
	best := scored[0].Score
	for _, sm := range scored[1:] {
		best = max(best, sm.Score)
	}
	threshold := best - (1-ratio)*generics.Abs(best)
	kept := make([]ScoredMove, 0, len(scored))
	for _, sm := range scored {
		if sm.Score >= threshold {
			kept = append(kept, sm)
		}
	}
	return kept
}

// Selector picks one of the scored moves, diversifying among the near best ones when
// their distribution has high entropy.
type Selector struct {
	// Ratio defines the near-best band, see NearBest.
	Ratio float32

	// Temperature of the softmax over the near-best scores.
	Temperature float32

	// Threshold of entropy (in bits) above which the move is sampled. Below it the best
	// move is taken.
	Threshold float32

	rng *rand.Rand
}

// NewSelector returns a Selector with the default values. If rng is nil it uses the global
// random number generator.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{
		Ratio:       DefaultNearBestRatio,
		Temperature: DefaultTemperature,
		Threshold:   DefaultThreshold,
		rng:         rng,
	}
}

func (sel *Selector) float32() float32 {
	if sel.rng == nil {
		return rand.Float32()
	}
	return sel.rng.Float32()
}

// Select returns the selected move. It returns false only if scored is empty.
func (sel *Selector) Select(scored []ScoredMove) (ScoredMove, bool) {
	candidates := NearBest(scored, sel.Ratio)
	switch len(candidates) {
	case 0:
		return ScoredMove{}, false
	case 1:
		return candidates[0], true
	}

	scores := Scores(candidates)
	probs := Softmax(scores, sel.Temperature)
	entropy := Entropy(probs)
	if klog.V(2).Enabled() {
		klog.Infof("Selector: %d near-best moves, entropy=%.3f bits (threshold %.3f)", len(candidates), entropy, sel.Threshold)
	}
	if entropy <= sel.Threshold {
		return candidates[generics.ArgMax(scores)], true
	}

	// The cumulative sum is accumulated in the same order as the total, so any chance below
	// the total selects a candidate.
	var total float32
	for _, p := range probs {
		total += p
	}
	chance := min(sel.float32()*total, math32.Nextafter(total, 0))
	var cumulative float32
	for ii, p := range probs {
		cumulative += p
		if chance < cumulative {
			return candidates[ii], true
		}
	}
	exceptions.Panicf("sampling fell through the distribution of %d candidates: chance=%g, total=%g",
		len(candidates), chance, total)
	return ScoredMove{}, false
}
