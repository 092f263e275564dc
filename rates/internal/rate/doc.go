// Package rate turns filtered triggers into per-template-bin,
// per-DQ-state trigger rates.
//
// Compute histograms each template bin's surviving triggers by the DQ
// state active at their time, normalizes by the observed exposure in each
// state, and expresses the result relative to the bin's mean trigger rate
// so a value of 1 means "no different from average".
//
// When pruning is enabled the loudest triggers of every bin, and every
// trigger within the configured window around them, are removed first.
// All bins prune against one shared statistic buffer before any bin is
// histogrammed, so every bin's histogram sees the same final removed set.
package rate
