package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Series is the concatenated data-quality time series, one sample per
// integer GPS second. Samples keep their input order; each source file is
// expected to be internally time ordered.
type Series struct {
	Times  []int64
	Values []float64
}

// Len returns the number of samples.
func (s *Series) Len() int { return len(s.Values) }

// SeriesOptions configure DQ series loading.
type SeriesOptions struct {
	// Channel names the metric family to read from exposition-format files.
	// Required when a file carries more than one family; ignored for CSV.
	Channel string
}

// LoadSeries reads and concatenates the DQ series from the given files.
// Each file is either CSV time,value rows or a Prometheus text exposition
// with per-sample timestamps; a .prom extension forces exposition,
// otherwise the format is sniffed from the content. An empty combined
// series is an error: with no DQ data there is nothing to bin against.
func LoadSeries(paths []string, opts SeriesOptions) (*Series, error) {
	series := &Series{}
	for _, path := range paths {
		if err := loadSeriesFile(series, path, opts); err != nil {
			return nil, err
		}
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("ingest: dq series is empty across %d file(s)", len(paths))
	}

	slog.Info("ingest: loaded dq series",
		"files", len(paths),
		"samples", humanize.Comma(int64(series.Len())),
		"start", series.Times[0],
		"end", series.Times[series.Len()-1],
	)
	return series, nil
}

func loadSeriesFile(series *Series, path string, opts SeriesOptions) error {
	r, err := openInput(path)
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("ingest: dq series %s: %w", path, err)
	}

	if isExpositionPath(path) || isExposition(data) {
		if err := parseSeriesExposition(series, bytes.NewReader(data), opts.Channel); err != nil {
			return fmt.Errorf("ingest: dq series %s: %w", path, err)
		}
		return nil
	}
	if err := parseSeriesCSV(series, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ingest: dq series %s: %w", path, err)
	}
	return nil
}

// isExpositionPath reports whether the file name marks Prometheus text
// exposition, including compressed variants like series.prom.gz. Sample
// lines with multiple labels contain commas and would sniff as CSV, so
// the extension wins over content.
func isExpositionPath(path string) bool {
	parts := strings.Split(filepath.Base(path), ".")
	for _, p := range parts[1:] {
		if p == "prom" {
			return true
		}
	}
	return false
}

// isExposition reports whether data looks like Prometheus text exposition.
// The first non-blank line decides: a comment or a sample line is
// exposition, a comma-separated line is CSV.
func isExposition(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return true
		}
		return !strings.Contains(line, ",")
	}
	return false
}

// parseSeriesCSV appends time,value rows to series. A single leading
// "time,value" header row is skipped.
func parseSeriesCSV(series *Series, r io.Reader) error {
	sc := bufio.NewScanner(r)
	var row int
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		row++
		if line == "" {
			continue
		}
		t, v, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("row %d: want time,value, got %q", row, line)
		}
		if row == 1 && strings.TrimSpace(t) == "time" {
			continue
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return fmt.Errorf("row %d: bad time %q", row, t)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("row %d: bad value %q", row, v)
		}
		series.Times = append(series.Times, int64(ts))
		series.Values = append(series.Values, val)
	}
	return sc.Err()
}

// parseSeriesExposition appends the samples of one metric family to series.
// The family is chosen by channel, or implicitly when the exposition holds
// exactly one family. Every sample must carry a timestamp.
func parseSeriesExposition(series *Series, r io.Reader, channel string) error {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return fmt.Errorf("parse exposition: %w", err)
	}
	// A non-empty result with a non-nil err is a partial parse (trailing
	// lines, format warnings) and still usable.
	if len(mfs) == 0 {
		return fmt.Errorf("exposition holds no metric families")
	}

	var mf *dto.MetricFamily
	switch {
	case channel != "":
		var ok bool
		if mf, ok = mfs[channel]; !ok {
			return fmt.Errorf("channel %q not found, have %s", channel, familyNames(mfs))
		}
	case len(mfs) == 1:
		for _, only := range mfs {
			mf = only
		}
	default:
		return fmt.Errorf("exposition holds %d channels, select one with --dq-channel: %s",
			len(mfs), familyNames(mfs))
	}

	for i, m := range mf.GetMetric() {
		if m.TimestampMs == nil {
			return fmt.Errorf("channel %q sample %d has no timestamp", mf.GetName(), i)
		}
		series.Times = append(series.Times, m.GetTimestampMs()/1000)
		series.Values = append(series.Values, sampleValue(m))
	}
	return nil
}

// sampleValue extracts the numeric value of one exposition sample.
func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}

// familyNames lists family names in sorted order for error messages.
func familyNames(mfs map[string]*dto.MetricFamily) string {
	names := make([]string, 0, len(mfs))
	for name := range mfs {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
