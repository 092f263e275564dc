package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
)

// Bank holds the per-template physical parameters of a template bank,
// indexed by bank row. The row index is the template id referenced by
// trigger tables.
type Bank struct {
	Mass1  []float64
	Mass2  []float64
	Spin1z []float64
	Spin2z []float64
}

// Len returns the number of templates in the bank.
func (b *Bank) Len() int { return len(b.Mass1) }

// Column names of a template bank table.
const (
	colMass1  = "mass1"
	colMass2  = "mass2"
	colSpin1z = "spin1z"
	colSpin2z = "spin2z"
)

// LoadBank reads a template bank from a CSV file with mass1, mass2,
// spin1z, spin2z columns. An empty bank is an error.
func LoadBank(path string) (*Bank, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	bank, err := parseBank(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: bank %s: %w", path, err)
	}
	if bank.Len() == 0 {
		return nil, fmt.Errorf("ingest: bank %s: no templates", path)
	}

	slog.Info("ingest: loaded template bank",
		"path", path,
		"templates", humanize.Comma(int64(bank.Len())),
	)
	return bank, nil
}

func parseBank(r io.Reader) (*Bank, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range []string{colMass1, colMass2, colSpin1z, colSpin2z} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	bank := &Bank{}
	var row int64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+1, err)
		}
		row++

		vals := [4]float64{}
		for i, name := range []string{colMass1, colMass2, colSpin1z, colSpin2z} {
			v, err := strconv.ParseFloat(rec[cols[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s %q", row, name, rec[cols[name]])
			}
			vals[i] = v
		}
		bank.Mass1 = append(bank.Mass1, vals[0])
		bank.Mass2 = append(bank.Mass2, vals[1])
		bank.Spin1z = append(bank.Spin1z, vals[2])
		bank.Spin2z = append(bank.Spin2z, vals[3])
	}
	return bank, nil
}
