package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSeriesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestIsExpositionPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"dq.prom", true},
		{"dq.prom.gz", true},
		{"deep/dir/h1-kw.prom.xz", true},
		{"dq.csv", false},
		{"prom.csv", false},
		{"series", false},
	}
	for _, tc := range tests {
		if got := isExpositionPath(tc.path); got != tc.want {
			t.Errorf("isExpositionPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsExposition(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"help comment first", "# HELP kw_dq dq stat\nkw_dq 1.0 1000\n", true},
		{"bare sample line", "kw_dq 1.0 1000\n", true},
		{"csv with header", "time,value\n1000,1.0\n", false},
		{"csv without header", "1000,1.0\n1001,2.0\n", false},
		{"leading blank lines", "\n\n# TYPE kw_dq gauge\n", true},
		{"empty file", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isExposition([]byte(tc.data)); got != tc.want {
				t.Errorf("isExposition(%q) = %v, want %v", tc.data, got, tc.want)
			}
		})
	}
}

func TestLoadSeries_CSV(t *testing.T) {
	path := writeSeriesFile(t, "dq.csv", "time,value\n1000,0.5\n1001,1.5\n1002,2.5\n")
	s, err := LoadSeries([]string{path}, SeriesOptions{})
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("samples = %d, want 3", s.Len())
	}
	if s.Times[0] != 1000 || s.Times[2] != 1002 {
		t.Errorf("Times = %v, want [1000 1001 1002]", s.Times)
	}
	if s.Values[1] != 1.5 {
		t.Errorf("Values[1] = %v, want 1.5", s.Values[1])
	}
}

func TestLoadSeries_ConcatenatesFiles(t *testing.T) {
	a := writeSeriesFile(t, "a.csv", "1000,1.0\n1001,2.0\n")
	b := writeSeriesFile(t, "b.csv", "2000,3.0\n")
	s, err := LoadSeries([]string{a, b}, SeriesOptions{})
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("samples = %d, want 3", s.Len())
	}
	if s.Times[2] != 2000 || s.Values[2] != 3.0 {
		t.Errorf("last sample = (%d, %v), want (2000, 3.0)", s.Times[2], s.Values[2])
	}
}

const expoSingle = `# HELP kw_dq kleine-welle data quality statistic
# TYPE kw_dq gauge
kw_dq 0.25 1000000
kw_dq 0.75 1001000
kw_dq 1.25 1002000
`

const expoDouble = expoSingle + `# TYPE odc_state gauge
odc_state 1 1000000
odc_state 0 1001000
`

func TestLoadSeries_Exposition(t *testing.T) {
	path := writeSeriesFile(t, "dq.prom", expoSingle)
	s, err := LoadSeries([]string{path}, SeriesOptions{})
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("samples = %d, want 3", s.Len())
	}
	// Timestamps arrive in milliseconds and come back as integer seconds.
	if s.Times[0] != 1000 || s.Times[2] != 1002 {
		t.Errorf("Times = %v, want [1000 1001 1002]", s.Times)
	}
	if s.Values[1] != 0.75 {
		t.Errorf("Values[1] = %v, want 0.75", s.Values[1])
	}
}

func TestLoadSeries_ChannelSelection(t *testing.T) {
	t.Run("ambiguous without channel", func(t *testing.T) {
		path := writeSeriesFile(t, "dq.prom", expoDouble)
		_, err := LoadSeries([]string{path}, SeriesOptions{})
		if err == nil {
			t.Fatal("expected error for multi-channel exposition, got nil")
		}
		if !strings.Contains(err.Error(), "kw_dq") || !strings.Contains(err.Error(), "odc_state") {
			t.Errorf("error %q should list the available channels", err)
		}
	})

	t.Run("explicit channel", func(t *testing.T) {
		path := writeSeriesFile(t, "dq.prom", expoDouble)
		s, err := LoadSeries([]string{path}, SeriesOptions{Channel: "odc_state"})
		if err != nil {
			t.Fatalf("LoadSeries: %v", err)
		}
		if s.Len() != 2 {
			t.Fatalf("samples = %d, want 2", s.Len())
		}
		if s.Values[0] != 1 || s.Values[1] != 0 {
			t.Errorf("Values = %v, want [1 0]", s.Values)
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		path := writeSeriesFile(t, "dq.prom", expoDouble)
		_, err := LoadSeries([]string{path}, SeriesOptions{Channel: "h_det_state"})
		if err == nil {
			t.Fatal("expected error for unknown channel, got nil")
		}
	})
}

func TestLoadSeries_ExpositionLabeledSamples(t *testing.T) {
	// Labeled sample lines contain commas, so only the .prom extension
	// routes this file away from the CSV parser.
	content := "# TYPE kw_dq gauge\n" +
		"kw_dq{ifo=\"H1\",subsystem=\"acc\"} 0.5 1000000\n" +
		"kw_dq{ifo=\"H1\",subsystem=\"acc\"} 1.5 1001000\n"
	path := writeSeriesFile(t, "dq.prom", content)
	s, err := LoadSeries([]string{path}, SeriesOptions{})
	if err != nil {
		t.Fatalf("LoadSeries: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("samples = %d, want 2", s.Len())
	}
	if s.Times[0] != 1000 || s.Values[1] != 1.5 {
		t.Errorf("got (%v, %v), want times starting 1000 and second value 1.5", s.Times, s.Values)
	}
}

func TestLoadSeries_ExpositionWithoutTimestamps(t *testing.T) {
	path := writeSeriesFile(t, "dq.prom", "# TYPE kw_dq gauge\nkw_dq 0.5\n")
	_, err := LoadSeries([]string{path}, SeriesOptions{})
	if err == nil {
		t.Fatal("expected error for sample without timestamp, got nil")
	}
}

func TestLoadSeries_Empty(t *testing.T) {
	path := writeSeriesFile(t, "dq.csv", "time,value\n")
	_, err := LoadSeries([]string{path}, SeriesOptions{})
	if err == nil {
		t.Fatal("expected error for empty series, got nil")
	}
}

func TestLoadSeries_MalformedCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"row loses the comma", "1000,1.0\n1001 2.0\n"},
		{"bad time", "t0,1.0\n"},
		{"bad value", "1000,high\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSeriesFile(t, "dq.csv", tc.content)
			if _, err := LoadSeries([]string{path}, SeriesOptions{}); err == nil {
				t.Fatal("expected parse error, got nil")
			}
		})
	}
}
