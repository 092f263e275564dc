// Package binning discretizes the two axes of the rate analysis.
//
// dqbins.go turns the continuous data-quality statistic into percentile
// bins: a Binner holds the nbins upper percentile edges of the observed
// value distribution, and a TimeIndex maps every observed integer second
// to its bin together with the accumulated exposure per bin.
//
// templates.go partitions the template bank into named bins using
// field-comparison definitions like "bns:mchirp<1.74" over quantities
// derived from the bank's masses and spins.
package binning
