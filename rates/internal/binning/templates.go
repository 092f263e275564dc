package binning

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/dqsift/dqsift/rates/internal/ingest"
)

// Field names usable in template bin definitions.
const (
	FieldDuration = "duration"
	FieldMchirp   = "mchirp"
	FieldMtotal   = "mtotal"
	FieldEta      = "eta"
	FieldChiEff   = "chieff"
)

// CatchAllBin is the single bin used when no definitions are given.
const CatchAllBin = "all"

// solarMassSeconds is G*Msun/c^3: one solar mass expressed in seconds.
const solarMassSeconds = 4.925490947641267e-6

// TemplateBin is a named set of template bank row indices.
type TemplateBin struct {
	Name string
	Locs []int
}

// PartitionBank splits the bank into template bins according to the given
// definitions. A definition has the form "name:field op value", for
// example "bns:mchirp<1.74" or "long:duration>=8". Supported fields are
// duration, mchirp, mtotal, eta, and chieff; supported operators are
// <, <=, >, and >=. Bins may overlap.
//
// With no definitions the whole bank forms one catch-all bin. fLower is
// the low-frequency cutoff in Hz used for the duration field.
func PartitionBank(bank *ingest.Bank, defs []string, fLower float64) ([]TemplateBin, error) {
	if len(defs) == 0 {
		locs := make([]int, bank.Len())
		for i := range locs {
			locs[i] = i
		}
		return []TemplateBin{{Name: CatchAllBin, Locs: locs}}, nil
	}

	bins := make([]TemplateBin, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		bd, err := parseBinDef(def)
		if err != nil {
			return nil, err
		}
		if seen[bd.name] {
			return nil, fmt.Errorf("binning: duplicate bin name %q", bd.name)
		}
		seen[bd.name] = true

		var locs []int
		for i := 0; i < bank.Len(); i++ {
			v, err := templateField(bank, i, bd.field, fLower)
			if err != nil {
				return nil, err
			}
			if compareFloat(v, bd.op, bd.value) {
				locs = append(locs, i)
			}
		}
		if len(locs) == 0 {
			slog.Warn("binning: template bin matches no templates", "bin", bd.name, "def", def)
		}
		bins = append(bins, TemplateBin{Name: bd.name, Locs: locs})
	}
	return bins, nil
}

// binDef is one parsed bin definition.
type binDef struct {
	name  string
	field string
	op    string
	value float64
}

// binOps lists the comparison operators, two-character ones first so the
// scan below never mistakes "<=" for "<".
var binOps = []string{"<=", ">=", "<", ">"}

func parseBinDef(def string) (binDef, error) {
	name, expr, ok := strings.Cut(def, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return binDef{}, fmt.Errorf("binning: bin definition %q: want name:field op value", def)
	}

	for _, op := range binOps {
		i := strings.Index(expr, op)
		if i < 0 {
			continue
		}
		field := strings.TrimSpace(expr[:i])
		rhs := strings.TrimSpace(expr[i+len(op):])
		value, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return binDef{}, fmt.Errorf("binning: bin %q: bad threshold %q", name, rhs)
		}
		switch field {
		case FieldDuration, FieldMchirp, FieldMtotal, FieldEta, FieldChiEff:
		default:
			return binDef{}, fmt.Errorf("binning: bin %q: unknown field %q", name, field)
		}
		return binDef{name: name, field: field, op: op, value: value}, nil
	}
	return binDef{}, fmt.Errorf("binning: bin %q: no comparison operator in %q", name, expr)
}

// templateField evaluates a derived field for bank row i.
func templateField(bank *ingest.Bank, i int, field string, fLower float64) (float64, error) {
	m1, m2 := bank.Mass1[i], bank.Mass2[i]
	switch field {
	case FieldMtotal:
		return m1 + m2, nil
	case FieldMchirp:
		return chirpMass(m1, m2), nil
	case FieldEta:
		return m1 * m2 / ((m1 + m2) * (m1 + m2)), nil
	case FieldChiEff:
		return (m1*bank.Spin1z[i] + m2*bank.Spin2z[i]) / (m1 + m2), nil
	case FieldDuration:
		if fLower <= 0 {
			return 0, fmt.Errorf("binning: duration needs a positive low-frequency cutoff, got %v", fLower)
		}
		return chirpDuration(m1, m2, fLower), nil
	default:
		return 0, fmt.Errorf("binning: unknown field %q", field)
	}
}

// chirpMass returns the chirp mass (m1*m2)^(3/5) / (m1+m2)^(1/5).
func chirpMass(m1, m2 float64) float64 {
	return math.Pow(m1*m2, 3.0/5.0) / math.Pow(m1+m2, 1.0/5.0)
}

// chirpDuration returns the leading-order inspiral duration in seconds
// from the low-frequency cutoff, for component masses in solar masses:
//
//	tau0 = (5/256) * (pi*f)^(-8/3) * (Mchirp in seconds)^(-5/3)
func chirpDuration(m1, m2, fLower float64) float64 {
	mc := chirpMass(m1, m2) * solarMassSeconds
	return 5.0 / 256.0 * math.Pow(math.Pi*fLower, -8.0/3.0) * math.Pow(mc, -5.0/3.0)
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	default:
		return false
	}
}
