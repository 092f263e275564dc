package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/dgryski/go-onlinestats"
	"github.com/dustin/go-humanize"

	"github.com/dqsift/dqsift/rates/internal/stat"
)

// Triggers holds the surviving triggers of one detector as parallel columns.
// All three slices share one index. Stats is the precise ranking statistic
// per trigger and is the only column downstream stages mutate (the pruner
// zeroes entries in place).
type Triggers struct {
	TemplateIDs []int
	Times       []int64
	Stats       []float64
}

// Len returns the number of triggers.
func (tr *Triggers) Len() int { return len(tr.Stats) }

// TriggerOptions select and threshold trigger rows while loading.
type TriggerOptions struct {
	// Detector keeps only rows whose ifo column matches.
	Detector string

	// Ranking is the statistic used for thresholding and stored in Stats.
	Ranking stat.Ranking

	// Threshold is the minimum ranking-statistic value to keep.
	Threshold float64
}

// LoadTriggers reads a trigger table from path, keeping rows that match the
// detector and pass the ranking-statistic threshold.
//
// The filter runs in two stages. Rows are first cut on the statistic's
// cheap proxy, which skips the full statistic evaluation for the bulk of
// the table; survivors are then cut on the precise value. Because the
// proxy bounds the value from above, the result is identical to filtering
// on the precise statistic alone.
//
// A run with zero surviving triggers cannot produce meaningful rates, so
// an empty result is an error.
func LoadTriggers(path string, opts TriggerOptions) (*Triggers, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	trig, read, err := parseTriggers(r, opts)
	if err != nil {
		return nil, fmt.Errorf("ingest: triggers %s: %w", path, err)
	}
	if trig.Len() == 0 {
		return nil, fmt.Errorf("ingest: triggers %s: no %s rows with %s >= %v",
			path, opts.Detector, opts.Ranking.Name(), opts.Threshold)
	}

	run := onlinestats.NewRunning()
	for _, s := range trig.Stats {
		run.Push(s)
	}
	slog.Info("ingest: loaded triggers",
		"path", path,
		"detector", opts.Detector,
		"rows", humanize.Comma(read),
		"kept", humanize.Comma(int64(trig.Len())),
		"stat", opts.Ranking.Name(),
		"stat_mean", run.Mean(),
		"stat_stddev", run.Stddev(),
	)
	return trig, nil
}

// Column names of a trigger table.
const (
	colIfo        = "ifo"
	colTemplateID = "template_id"
	colEndTime    = "end_time"
	colSNR        = "snr"
	colRchisq     = "rchisq"
	colPSDVar     = "psd_var_val"
)

// parseTriggers reads and filters a CSV trigger table. It returns the kept
// triggers and the total number of data rows read.
func parseTriggers(r io.Reader, opts TriggerOptions) (*Triggers, int64, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range []string{colIfo, colTemplateID, colEndTime, colSNR, colRchisq} {
		if _, ok := cols[name]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}
	psdVarCol, hasPSDVar := cols[colPSDVar]
	if opts.Ranking.NeedsPSDVar() && !hasPSDVar {
		slog.Warn("ingest: statistic uses PSD variation but column is absent, correction disabled",
			"stat", opts.Ranking.Name(), "column", colPSDVar)
	}

	trig := &Triggers{}
	var read int64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", read+1, err)
		}
		read++

		if rec[cols[colIfo]] != opts.Detector {
			continue
		}

		snr, err := floatField(rec, cols[colSNR], colSNR, read)
		if err != nil {
			return nil, 0, err
		}
		var psdVar float64
		if hasPSDVar {
			if psdVar, err = floatField(rec, psdVarCol, colPSDVar, read); err != nil {
				return nil, 0, err
			}
		}
		if opts.Ranking.Proxy(snr, psdVar) < opts.Threshold {
			continue
		}

		rchisq, err := floatField(rec, cols[colRchisq], colRchisq, read)
		if err != nil {
			return nil, 0, err
		}
		value := opts.Ranking.Value(snr, rchisq, psdVar)
		if value < opts.Threshold {
			continue
		}

		tid, err := strconv.Atoi(rec[cols[colTemplateID]])
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: bad %s %q", read, colTemplateID, rec[cols[colTemplateID]])
		}
		endTime, err := floatField(rec, cols[colEndTime], colEndTime, read)
		if err != nil {
			return nil, 0, err
		}

		trig.TemplateIDs = append(trig.TemplateIDs, tid)
		trig.Times = append(trig.Times, int64(endTime))
		trig.Stats = append(trig.Stats, value)
	}
	return trig, read, nil
}

// floatField parses one CSV field as float64 with row context on failure.
func floatField(rec []string, idx int, name string, row int64) (float64, error) {
	v, err := strconv.ParseFloat(rec[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: bad %s %q", row, name, rec[idx])
	}
	return v, nil
}
