package rate

import (
	"fmt"
	"log/slog"

	"github.com/dqsift/dqsift/rates/internal/binning"
	"github.com/dqsift/dqsift/rates/internal/ingest"
)

// Options configure Compute.
type Options struct {
	// PruneCount is the number of loudest triggers removed per template
	// bin before the rates are histogrammed. Zero disables pruning
	// entirely and leaves the statistic buffer untouched.
	PruneCount int

	// PruneWindow is the half-width in seconds of the removal window
	// around each pruned trigger.
	PruneWindow int64
}

// Result holds the rates of one template bin.
type Result struct {
	Name  string
	Locs  []int
	Rates []float64
}

// Compute derives the per-DQ-state trigger rate of every template bin.
//
// The rate of state i is the bin's surviving trigger count in state i
// divided by the observed seconds of state i, expressed relative to the
// bin's mean rate over all observed time. States with no exposure keep a
// rate of zero. A trigger at a second the index does not cover is an
// error.
//
// Compute mutates trig.Stats when pruning is enabled.
func Compute(trig *ingest.Triggers, bins []binning.TemplateBin, idx *binning.TimeIndex, opts Options) ([]Result, error) {
	members := binMembers(trig, bins)

	if opts.PruneCount > 0 {
		pruneBins(trig, members, opts.PruneCount, opts.PruneWindow)
		members = dropZeroed(trig, members)
	}

	seconds := idx.Seconds()
	var totalSeconds float64
	for _, s := range seconds {
		totalSeconds += s
	}

	results := make([]Result, len(bins))
	for b, bin := range bins {
		counts := make([]float64, idx.NBins())
		for _, j := range members[b] {
			state, err := idx.Bin(trig.Times[j])
			if err != nil {
				return nil, fmt.Errorf("rate: bin %q trigger at %d: %w", bin.Name, trig.Times[j], err)
			}
			counts[state]++
		}

		rates := make([]float64, idx.NBins())
		for i := range rates {
			if seconds[i] > 0 {
				rates[i] = counts[i] / seconds[i]
			}
		}
		if mean := float64(len(members[b])) / totalSeconds; mean > 0 {
			for i := range rates {
				rates[i] /= mean
			}
		}

		results[b] = Result{Name: bin.Name, Locs: bin.Locs, Rates: rates}
		slog.Debug("rate: aggregated bin",
			"bin", bin.Name, "triggers", len(members[b]), "templates", len(bin.Locs))
	}
	return results, nil
}

// binMembers resolves each template bin to the trigger indices it covers.
// Bins may overlap, so a trigger can appear in more than one bin.
func binMembers(trig *ingest.Triggers, bins []binning.TemplateBin) [][]int {
	members := make([][]int, len(bins))
	for b, bin := range bins {
		inBin := make(map[int]bool, len(bin.Locs))
		for _, loc := range bin.Locs {
			inBin[loc] = true
		}
		for j, tid := range trig.TemplateIDs {
			if inBin[tid] {
				members[b] = append(members[b], j)
			}
		}
	}
	return members
}

// dropZeroed removes pruned triggers from every bin's membership. The
// check is global: a trigger zeroed by any bin's pruning disappears from
// all bins.
func dropZeroed(trig *ingest.Triggers, members [][]int) [][]int {
	out := make([][]int, len(members))
	for b, idxs := range members {
		kept := idxs[:0]
		for _, j := range idxs {
			if trig.Stats[j] != 0 {
				kept = append(kept, j)
			}
		}
		out[b] = kept
	}
	return out
}
