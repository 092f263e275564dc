package stat

import (
	"fmt"
	"math"
)

// Names of the supported ranking statistics.
const (
	NameSNR          = "snr"
	NameNewSNR       = "newsnr"
	NameNewSNRPSDVar = "newsnr_psdvar"
)

// Ranking computes a trigger ranking statistic from per-trigger columns.
type Ranking interface {
	// Name returns the statistic's canonical name.
	Name() string

	// Proxy returns the cheap pre-filter value. It is always greater than
	// or equal to Value for the same trigger.
	Proxy(snr, psdVar float64) float64

	// Value returns the precise statistic value.
	Value(snr, rchisq, psdVar float64) float64

	// NeedsPSDVar reports whether the statistic consumes the PSD variation
	// column. Loaders use it to decide whether the column is required.
	NeedsPSDVar() bool
}

// New returns the Ranking for the given statistic name.
func New(name string) (Ranking, error) {
	switch name {
	case NameSNR:
		return snrStat{}, nil
	case NameNewSNR:
		return newSNRStat{}, nil
	case NameNewSNRPSDVar:
		return psdVarStat{}, nil
	default:
		return nil, fmt.Errorf("stat: unsupported ranking statistic %q", name)
	}
}

// Names returns the supported statistic names, for help text and errors.
func Names() []string {
	return []string{NameSNR, NameNewSNR, NameNewSNRPSDVar}
}

// snrStat ranks triggers by raw matched-filter SNR.
type snrStat struct{}

func (snrStat) Name() string                 { return NameSNR }
func (snrStat) Proxy(snr, _ float64) float64 { return snr }
func (snrStat) Value(snr, _, _ float64) float64 {
	return snr
}
func (snrStat) NeedsPSDVar() bool { return false }

// newSNRStat ranks triggers by chi-square-reweighted SNR.
type newSNRStat struct{}

func (newSNRStat) Name() string                 { return NameNewSNR }
func (newSNRStat) Proxy(snr, _ float64) float64 { return snr }
func (newSNRStat) Value(snr, rchisq, _ float64) float64 {
	return reweight(snr, rchisq)
}
func (newSNRStat) NeedsPSDVar() bool { return false }

// psdVarStat ranks triggers by reweighted SNR corrected for short-term PSD
// variation. The correction only ever reduces the statistic, and only when
// the variation estimate exceeds one.
type psdVarStat struct{}

func (psdVarStat) Name() string { return NameNewSNRPSDVar }

func (psdVarStat) Proxy(snr, psdVar float64) float64 {
	if psdVar > 1 {
		return snr / math.Sqrt(psdVar)
	}
	return snr
}

func (psdVarStat) Value(snr, rchisq, psdVar float64) float64 {
	v := reweight(snr, rchisq)
	if psdVar > 1 {
		v /= math.Sqrt(psdVar)
	}
	return v
}

func (psdVarStat) NeedsPSDVar() bool { return true }

// reweight applies the chi-square reweighting:
//
//	newsnr = snr / ((1 + rchisq^3) / 2)^(1/6)   for rchisq > 1
//	newsnr = snr                                otherwise
//
// The reweighted value never exceeds the input SNR.
func reweight(snr, rchisq float64) float64 {
	if rchisq <= 1 {
		return snr
	}
	return snr / math.Pow((1+rchisq*rchisq*rchisq)/2, 1.0/6.0)
}
