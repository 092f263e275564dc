package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// FlagLikelihood holds the binned log-likelihood statistics for one DQ flag.
// Index 0 is the flag-inactive state, index 1 the flag-active state; every
// well-formed artifact carries exactly these two entries per slice.
type FlagLikelihood struct {
	// LogLR is the log likelihood ratio per flag state.
	LogLR []float64 `json:"loglr"`

	// Livetime is the observed seconds per flag state.
	Livetime []float64 `json:"livetime"`
}

// DetectorLikelihood is the per-flag likelihood table for one detector.
type DetectorLikelihood struct {
	Flags map[string]FlagLikelihood `json:"flags"`
}

// LikelihoodSet is a likelihood artifact keyed by detector identifier.
type LikelihoodSet map[string]DetectorLikelihood

// ReadLikelihoodSet reads a likelihood set from path. Per-detector
// validation is deferred to Detector so a file may carry extra detectors
// the caller never asks for.
func ReadLikelihoodSet(path string) (LikelihoodSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: read likelihood set: %w", err)
	}
	var ls LikelihoodSet
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("artifact: parse likelihood set: %w", err)
	}
	if len(ls) == 0 {
		return nil, fmt.Errorf("artifact: likelihood set: no detectors")
	}
	return ls, nil
}

// WriteLikelihoodSet writes ls to path atomically.
func WriteLikelihoodSet(path string, ls LikelihoodSet) error {
	if len(ls) == 0 {
		return fmt.Errorf("artifact: likelihood set: no detectors")
	}
	return writeJSON(path, ls)
}

// Detector returns the validated likelihood table for the named detector.
// Every flag must carry exactly two states (inactive, active) in both its
// log-likelihood and livetime vectors; anything else is a malformed input.
func (ls LikelihoodSet) Detector(name string) (DetectorLikelihood, error) {
	dl, ok := ls[name]
	if !ok {
		return DetectorLikelihood{}, fmt.Errorf("artifact: detector %q not in likelihood set", name)
	}
	if len(dl.Flags) == 0 {
		return DetectorLikelihood{}, fmt.Errorf("artifact: detector %q has no flags", name)
	}
	for flag, fl := range dl.Flags {
		if len(fl.LogLR) != 2 {
			return DetectorLikelihood{}, fmt.Errorf(
				"artifact: detector %q flag %q: %d loglr states, want 2", name, flag, len(fl.LogLR))
		}
		if len(fl.Livetime) != 2 {
			return DetectorLikelihood{}, fmt.Errorf(
				"artifact: detector %q flag %q: %d livetime states, want 2", name, flag, len(fl.Livetime))
		}
	}
	return dl, nil
}

// FlagNames returns the detector's flag names in sorted order so renderings
// of the same artifact are reproducible.
func (dl DetectorLikelihood) FlagNames() []string {
	names := make([]string, 0, len(dl.Flags))
	for name := range dl.Flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
