package searchers

import (
	"cmp"
	"fmt"
	"github.com/janpfeifer/quoridorGo/internal/generics"
	. "github.com/janpfeifer/quoridorGo/internal/state"
	"k8s.io/klog/v2"
	"slices"
	"strings"
	"sync"
)

const (
	// HistoryScores is the number of recent scores kept by History.
	HistoryScores = 10

	// HistoryPatterns is the maximum number of move patterns counted by History.
	HistoryPatterns = 50

	// HistoryTopPatterns is the number of patterns reported by Summary.
	HistoryTopPatterns = 3
)

// PatternCount is the number of times a move pattern was selected.
type PatternCount struct {
	Pattern string
	Count   int
}

// History of the moves selected by a searcher, used for diagnostics.
//
// It keeps the last HistoryScores scores and counts up to HistoryPatterns move patterns:
// when full, the least frequent pattern (the oldest among ties) is dropped.
// It is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	scores   *generics.Ring[float32]
	patterns []PatternCount // In insertion order.
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{scores: generics.NewRing[float32](HistoryScores)}
}

// Pattern used to count a move: its kind and target.
func Pattern(m Move) string {
	switch m.Kind {
	case Movement:
		return fmt.Sprintf("move_%d_%d", m.Target.X(), m.Target.Y())
	case WallPlacement:
		orientation := "v"
		if m.Horizontal {
			orientation = "h"
		}
		return fmt.Sprintf("wall_%d_%d_%s", m.Target.X(), m.Target.Y(), orientation)
	}
	return "none"
}

// Record a selected move and its score. A nil History is a no-op.
func (h *History) Record(m Move, score float32) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scores.Push(score)
	pattern := Pattern(m)
	idx := slices.IndexFunc(h.patterns, func(pc PatternCount) bool { return pc.Pattern == pattern })
	if idx >= 0 {
		h.patterns[idx].Count++
	} else {
		h.patterns = append(h.patterns, PatternCount{pattern, 1})
	}
	if len(h.patterns) > HistoryPatterns {
		leastIdx := 0
		for ii, pc := range h.patterns {
			if pc.Count < h.patterns[leastIdx].Count {
				leastIdx = ii
			}
		}
		h.patterns = slices.Delete(h.patterns, leastIdx, leastIdx+1)
	}
}

// HistorySummary reports statistics of the recent moves.
type HistorySummary struct {
	// NumScores is the number of recent scores used.
	NumScores int

	Mean, Variance float32

	// Entropy of the softmax over the recent scores.
	Entropy float32

	// NumPatterns counted so far, and the most frequent ones.
	NumPatterns int
	TopPatterns []PatternCount
}

// String implements fmt.Stringer.
func (s HistorySummary) String() string {
	var parts []string
	for _, pc := range s.TopPatterns {
		parts = append(parts, fmt.Sprintf("%s(%d)", pc.Pattern, pc.Count))
	}
	return fmt.Sprintf("recent %d scores: mean=%.2f, variance=%.2f, entropy=%.3f; %d patterns, top: [%s]",
		s.NumScores, s.Mean, s.Variance, s.Entropy, s.NumPatterns, strings.Join(parts, ", "))
}

// Summary returns the statistics of the recent moves.
func (h *History) Summary() HistorySummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	scores := slices.Collect(h.scores.All())
	summary := HistorySummary{NumScores: len(scores), NumPatterns: len(h.patterns)}
	if len(scores) > 0 {
		for _, s := range scores {
			summary.Mean += s
		}
		summary.Mean /= float32(len(scores))
		for _, s := range scores {
			summary.Variance += (s - summary.Mean) * (s - summary.Mean)
		}
		summary.Variance /= float32(len(scores))
	}
	if len(scores) > 1 {
		summary.Entropy = Entropy(Softmax(scores, DefaultTemperature))
	}
	top := slices.Clone(h.patterns)
	slices.SortStableFunc(top, func(a, b PatternCount) int { return cmp.Compare(b.Count, a.Count) })
	if len(top) > HistoryTopPatterns {
		top = top[:HistoryTopPatterns]
	}
	summary.TopPatterns = top
	return summary
}

// Log the summary at verbosity level 1, once there are at least 5 recent scores.
func (h *History) Log() {
	if h == nil || !klog.V(1).Enabled() {
		return
	}
	summary := h.Summary()
	if summary.NumScores < 5 {
		return
	}
	klog.Infof("Move history: %s", summary)
}
