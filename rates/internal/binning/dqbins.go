package binning

import (
	"fmt"
	"math"
	"sort"

	"github.com/wangjohn/quickselect"
)

// Binner assigns data-quality values to percentile bins.
//
// The edges are the nbins upper percentile cut points of the value
// distribution the Binner was built from, evenly spaced in percentile
// rank. The degenerate 0th percentile is not kept: every in-distribution
// value is at most the top edge, so nbins edges suffice.
type Binner struct {
	nbins int
	edges []float64
}

// NewBinner computes percentile edges from the observed values.
func NewBinner(values []float64, nbins int) (*Binner, error) {
	if nbins < 1 {
		return nil, fmt.Errorf("binning: nbins = %d, want at least 1", nbins)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("binning: no values to bin")
	}

	// percentile partially reorders its buffer, so work on a copy of the
	// caller's data. One buffer serves all edges: reordering does not
	// change the multiset the order statistics are drawn from.
	buf := make([]float64, len(values))
	copy(buf, values)

	edges := make([]float64, nbins)
	for i := 1; i <= nbins; i++ {
		edges[i-1] = percentile(buf, 100*float64(i)/float64(nbins))
	}
	return &Binner{nbins: nbins, edges: edges}, nil
}

// NBins returns the number of bins.
func (b *Binner) NBins() int { return b.nbins }

// Edges returns a copy of the ascending upper bin edges.
func (b *Binner) Edges() []float64 {
	out := make([]float64, len(b.edges))
	copy(out, b.edges)
	return out
}

// Bin returns the bin index of v in [0, nbins). A value lands in the
// first bin whose upper edge is at least v, so bin assignment is
// non-decreasing in v. Values above the top edge cannot occur for
// in-distribution input and clamp to the last bin.
func (b *Binner) Bin(v float64) int {
	bin := sort.SearchFloat64s(b.edges, v)
	if bin == b.nbins {
		bin = b.nbins - 1
	}
	return bin
}

// Index builds the time lookup for a series of per-second samples.
// times and values are parallel slices.
func (b *Binner) Index(times []int64, values []float64) (*TimeIndex, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("binning: %d times vs %d values", len(times), len(values))
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("binning: empty series")
	}

	ti := &TimeIndex{
		nbins:   b.nbins,
		times:   make([]int64, len(times)),
		bins:    make([]int, len(times)),
		seconds: make([]float64, b.nbins),
	}
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return times[order[i]] < times[order[j]] })

	for i, src := range order {
		bin := b.Bin(values[src])
		ti.times[i] = times[src]
		ti.bins[i] = bin
		ti.seconds[bin]++
	}
	return ti, nil
}

// TimeIndex maps observed integer seconds to their DQ bin.
type TimeIndex struct {
	nbins   int
	times   []int64 // ascending
	bins    []int
	seconds []float64
}

// NBins returns the number of bins.
func (ti *TimeIndex) NBins() int { return ti.nbins }

// Seconds returns the observed exposure per bin, in seconds. The sum over
// bins equals the number of samples the index was built from.
func (ti *TimeIndex) Seconds() []float64 {
	out := make([]float64, len(ti.seconds))
	copy(out, ti.seconds)
	return out
}

// Bin returns the DQ bin covering second t. A second outside the series
// is an error: triggers are only meaningful where DQ data was observed.
func (ti *TimeIndex) Bin(t int64) (int, error) {
	i := sort.Search(len(ti.times), func(i int) bool { return ti.times[i] >= t })
	if i == len(ti.times) || ti.times[i] != t {
		return 0, fmt.Errorf("binning: time %d not covered by the dq series", t)
	}
	return ti.bins[i], nil
}

// Fraction returns the bin of second t expressed as bin/nbins in [0, 1).
func (ti *TimeIndex) Fraction(t int64) (float64, error) {
	bin, err := ti.Bin(t)
	if err != nil {
		return 0, err
	}
	return float64(bin) / float64(ti.nbins), nil
}

// percentile returns the p-th percentile of data with linear interpolation
// between adjacent order statistics. data is partially reordered in place.
func percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 100 {
		return math.NaN()
	}
	if len(data) == 1 {
		return data[0]
	}

	k := (float64(len(data)-1) * p) / 100
	length := int(math.Ceil(k)) + 1
	quickselect.Float64QuickSelect(data, length)

	top, secondTop := math.Inf(-1), math.Inf(-1)
	for _, val := range data[:length] {
		if val > top {
			secondTop = top
			top = val
		} else if val > secondTop {
			secondTop = val
		}
	}
	remainder := k - float64(int(k))
	if remainder == 0 {
		return top
	}
	return top*remainder + secondTop*(1-remainder)
}
