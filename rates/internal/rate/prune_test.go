package rate

import (
	"testing"
)

func TestArgmaxStat(t *testing.T) {
	stats := []float64{3, 9, 9, 1, 0}

	t.Run("ties keep the earliest index", func(t *testing.T) {
		best, max := argmaxStat(stats, []int{0, 1, 2, 3})
		if best != 1 || max != 9 {
			t.Errorf("argmaxStat = (%d, %v), want (1, 9)", best, max)
		}
	})

	t.Run("restricted to member indices", func(t *testing.T) {
		best, max := argmaxStat(stats, []int{0, 3})
		if best != 0 || max != 3 {
			t.Errorf("argmaxStat = (%d, %v), want (0, 3)", best, max)
		}
	})

	t.Run("all zero finds nothing", func(t *testing.T) {
		best, max := argmaxStat(stats, []int{4})
		if best != -1 || max != 0 {
			t.Errorf("argmaxStat = (%d, %v), want (-1, 0)", best, max)
		}
	})
}

func TestZeroWindow_Inclusive(t *testing.T) {
	trig := makeTriggers(
		[]int{0, 0, 0, 0, 0},
		[]int64{998, 999, 1000, 1001, 1002},
		[]float64{1, 2, 3, 4, 5},
	)
	zeroWindow(trig, 1000, 1)

	want := []float64{1, 0, 0, 0, 5}
	for i := range want {
		if trig.Stats[i] != want[i] {
			t.Errorf("Stats[%d] = %v, want %v", i, trig.Stats[i], want[i])
		}
	}
}

func TestZeroWindow_ZeroWidth(t *testing.T) {
	trig := makeTriggers(
		[]int{0, 0, 0},
		[]int64{999, 1000, 1001},
		[]float64{1, 2, 3},
	)
	zeroWindow(trig, 1000, 0)

	want := []float64{1, 0, 3}
	for i := range want {
		if trig.Stats[i] != want[i] {
			t.Errorf("Stats[%d] = %v, want %v", i, trig.Stats[i], want[i])
		}
	}
}

func TestPruneBins_RemovesLoudestAndNeighborhood(t *testing.T) {
	idx := twoStateIndex(t)
	trig := makeTriggers(
		[]int{0, 0, 0, 0},
		[]int64{1000, 1001, 1003, 1009},
		[]float64{5, 9, 7, 6},
	)

	results, err := Compute(trig, allBin(0), idx, Options{PruneCount: 1, PruneWindow: 1})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// The loudest trigger sits at 1001; the window removes 1000 and 1001.
	// Survivors: 1003 (state 0) and 1009 (state 1), so counts [1,1] over
	// 5 s each with mean 2/10, giving relative rate 1 in both states.
	if trig.Stats[0] != 0 || trig.Stats[1] != 0 {
		t.Errorf("Stats[0:2] = %v, want the pair zeroed", trig.Stats[:2])
	}
	if trig.Stats[2] == 0 || trig.Stats[3] == 0 {
		t.Errorf("Stats[2:4] = %v, survivors must keep their statistic", trig.Stats[2:])
	}
	for i, rate := range results[0].Rates {
		if !almostEqual(rate, 1.0, 1e-12) {
			t.Errorf("Rates[%d] = %v, want 1.0", i, rate)
		}
	}
}

func TestPruneBins_SecondIterationTakesNextLoudest(t *testing.T) {
	idx := twoStateIndex(t)
	trig := makeTriggers(
		[]int{0, 0, 0, 0},
		[]int64{1000, 1001, 1003, 1009},
		[]float64{5, 9, 7, 6},
	)

	_, err := Compute(trig, allBin(0), idx, Options{PruneCount: 2, PruneWindow: 1})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Iteration 1 removes 1001 and its neighbor 1000; iteration 2 removes
	// the next loudest at 1003. Only 1009 survives.
	want := []float64{0, 0, 0, 6}
	for i := range want {
		if trig.Stats[i] != want[i] {
			t.Errorf("Stats[%d] = %v, want %v", i, trig.Stats[i], want[i])
		}
	}
}

func TestPruneBins_StopsWhenBinIsExhausted(t *testing.T) {
	idx := twoStateIndex(t)
	trig := makeTriggers(
		[]int{0, 0},
		[]int64{1000, 1005},
		[]float64{6, 7},
	)

	// Far more iterations than triggers: the loop must stop at an empty
	// bin instead of spinning, and every state ends with rate 0.
	results, err := Compute(trig, allBin(0), idx, Options{PruneCount: 10, PruneWindow: 0})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i, rate := range results[0].Rates {
		if rate != 0 {
			t.Errorf("Rates[%d] = %v, want 0 after pruning everything", i, rate)
		}
	}
}

func TestPruneBins_CrossBinRemoval(t *testing.T) {
	idx := twoStateIndex(t)
	// Bin "a" holds template 0, bin "b" template 1. Both triggers share
	// second 1000, so pruning bin a's loudest also removes bin b's only
	// trigger through the shared buffer.
	trig := makeTriggers(
		[]int{0, 1},
		[]int64{1000, 1000},
		[]float64{9, 5},
	)
	bins := allBin(0)
	bins = append(bins, allBin(1)...)
	bins[0].Name, bins[1].Name = "a", "b"

	results, err := Compute(trig, bins, idx, Options{PruneCount: 1, PruneWindow: 0})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, r := range results {
		for i, rate := range r.Rates {
			if rate != 0 {
				t.Errorf("bin %s Rates[%d] = %v, want 0: the shared second was pruned", r.Name, i, rate)
			}
		}
	}
	if trig.Stats[1] != 0 {
		t.Errorf("Stats[1] = %v, want 0 via cross-bin window", trig.Stats[1])
	}
}
