// Package render draws the per-flag log-likelihood chart of a detector.
//
// The chart combines a bar series, the log likelihood ratio observed
// while each DQ flag was active, with an overlaid line giving the
// percentage of livetime the flag was on. Bars read against the left
// axis; the line carries its own 0 to 100 percent scale marked at the
// right edge. Output is PNG or SVG, selected by file extension.
package render
