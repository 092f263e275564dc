package rate

import (
	"log/slog"

	"github.com/dqsift/dqsift/rates/internal/ingest"
)

// pruneBins removes the loudest triggers of every template bin from the
// shared statistic buffer.
//
// For each bin, count iterations pick the bin's current loudest trigger
// and zero the statistic of every trigger, in any bin, within window
// seconds of it (inclusive). Zeroed triggers can no longer be picked, so
// each iteration removes a distinct event. A bin stops early when nothing
// nonzero remains in it.
//
// The buffer must not be histogrammed until every bin has been pruned:
// the cross-bin zeroing makes the final removed set a property of the
// whole buffer, not of any one bin.
func pruneBins(trig *ingest.Triggers, members [][]int, count int, window int64) {
	for b, idxs := range members {
		pruned := 0
		for i := 0; i < count; i++ {
			loudest, max := argmaxStat(trig.Stats, idxs)
			if max <= 0 {
				break
			}
			zeroWindow(trig, trig.Times[loudest], window)
			pruned++
		}
		slog.Debug("rate: pruned loudest triggers", "bin", b, "pruned", pruned)
	}
}

// argmaxStat returns the trigger index with the largest statistic among
// idxs, and that statistic. Ties keep the earliest index.
func argmaxStat(stats []float64, idxs []int) (int, float64) {
	best, max := -1, 0.0
	for _, j := range idxs {
		if stats[j] > max {
			best, max = j, stats[j]
		}
	}
	return best, max
}

// zeroWindow zeroes the statistic of every trigger within window seconds
// of center, inclusive on both sides.
func zeroWindow(trig *ingest.Triggers, center, window int64) {
	for j, t := range trig.Times {
		if t >= center-window && t <= center+window {
			trig.Stats[j] = 0
		}
	}
}
