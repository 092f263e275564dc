package artifact

import (
	"path/filepath"
	"strings"
	"testing"
)

func makeLikelihoodSet() LikelihoodSet {
	return LikelihoodSet{
		"L1": DetectorLikelihood{
			Flags: map[string]FlagLikelihood{
				"DQ_VETO_A": {LogLR: []float64{-0.1, 2.3}, Livetime: []float64{9000, 1000}},
				"DQ_VETO_B": {LogLR: []float64{0.0, 0.8}, Livetime: []float64{9900, 100}},
			},
		},
	}
}

func TestLikelihoodSet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loglr.json")
	if err := WriteLikelihoodSet(path, makeLikelihoodSet()); err != nil {
		t.Fatalf("WriteLikelihoodSet: %v", err)
	}

	ls, err := ReadLikelihoodSet(path)
	if err != nil {
		t.Fatalf("ReadLikelihoodSet: %v", err)
	}
	dl, err := ls.Detector("L1")
	if err != nil {
		t.Fatalf("Detector(L1): %v", err)
	}
	fl := dl.Flags["DQ_VETO_A"]
	if fl.LogLR[1] != 2.3 {
		t.Errorf("DQ_VETO_A active loglr = %v, want 2.3", fl.LogLR[1])
	}
	if fl.Livetime[0] != 9000 {
		t.Errorf("DQ_VETO_A inactive livetime = %v, want 9000", fl.Livetime[0])
	}
}

func TestLikelihoodSet_DetectorValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(LikelihoodSet)
		lookup  string
		wantErr string
	}{
		{
			name:    "unknown detector",
			mutate:  func(LikelihoodSet) {},
			lookup:  "V1",
			wantErr: "not in likelihood set",
		},
		{
			name: "no flags",
			mutate: func(ls LikelihoodSet) {
				ls["L1"] = DetectorLikelihood{}
			},
			lookup:  "L1",
			wantErr: "no flags",
		},
		{
			name: "three loglr states",
			mutate: func(ls LikelihoodSet) {
				ls["L1"].Flags["DQ_VETO_A"] = FlagLikelihood{
					LogLR:    []float64{0, 1, 2},
					Livetime: []float64{1, 2},
				}
			},
			lookup:  "L1",
			wantErr: "3 loglr states, want 2",
		},
		{
			name: "one livetime state",
			mutate: func(ls LikelihoodSet) {
				ls["L1"].Flags["DQ_VETO_B"] = FlagLikelihood{
					LogLR:    []float64{0, 1},
					Livetime: []float64{100},
				}
			},
			lookup:  "L1",
			wantErr: "1 livetime states, want 2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ls := makeLikelihoodSet()
			tc.mutate(ls)
			_, err := ls.Detector(tc.lookup)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestDetectorLikelihood_FlagNamesSorted(t *testing.T) {
	dl := DetectorLikelihood{
		Flags: map[string]FlagLikelihood{
			"ZULU": {}, "ALPHA": {}, "MIKE": {},
		},
	}
	got := dl.FlagNames()
	want := []string{"ALPHA", "MIKE", "ZULU"}
	if len(got) != len(want) {
		t.Fatalf("FlagNames length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FlagNames[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
