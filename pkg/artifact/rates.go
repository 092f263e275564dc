package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BinRates holds the result for one template bin: the normalized trigger
// rate in each data-quality state and the template indices the bin covers.
type BinRates struct {
	// Rates is the rate-ratio per DQ state, indexed by state number.
	// Its length equals the number of percentile bins of the run.
	Rates []float64 `json:"rates"`

	// Locs is the list of template bank row indices assigned to this bin.
	Locs []int `json:"locs"`
}

// RateSet is the full output of one dqsift-rates run for a single detector.
type RateSet struct {
	// Detector is the interferometer identifier the rates were computed for.
	Detector string `json:"detector"`

	// Names lists the template bin names in definition order.
	Names []string `json:"names"`

	// Times is the observed livetime in seconds per DQ state.
	Times []float64 `json:"times"`

	// Bins maps each name in Names to its per-state rates.
	Bins map[string]BinRates `json:"bins"`
}

// WriteRateSet writes rs to path as JSON. The write is atomic: the data is
// staged in a temp file in the same directory and renamed into place, so a
// partially-written artifact is never visible at path.
func WriteRateSet(path string, rs *RateSet) error {
	if err := rs.validate(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	return writeJSON(path, rs)
}

// ReadRateSet reads and validates a rate set from path.
func ReadRateSet(path string) (*RateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read rate set: %w", err)
	}
	var rs RateSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("artifact: parse rate set: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	return &rs, nil
}

// validate checks the structural invariants of a rate set: every named bin
// is present, and every bin's rate vector matches the DQ state count.
func (rs *RateSet) validate() error {
	if rs.Detector == "" {
		return fmt.Errorf("rate set: detector is empty")
	}
	if len(rs.Names) == 0 {
		return fmt.Errorf("rate set: no template bins")
	}
	nstates := len(rs.Times)
	if nstates == 0 {
		return fmt.Errorf("rate set: no DQ states")
	}
	for _, name := range rs.Names {
		br, ok := rs.Bins[name]
		if !ok {
			return fmt.Errorf("rate set: bin %q listed in names but missing", name)
		}
		if len(br.Rates) != nstates {
			return fmt.Errorf("rate set: bin %q has %d rates, want %d", name, len(br.Rates), nstates)
		}
	}
	return nil
}

// writeJSON marshals v with indentation and renames it into place.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: rename into place: %w", err)
	}
	return nil
}
