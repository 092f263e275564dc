// Package ingest loads the three inputs of a rates run: single-detector
// triggers, the data-quality time series, and the template bank.
//
// All loaders accept gzip, bzip2, and xz compressed files transparently;
// the codec is detected from magic bytes, never from the file extension.
// Trigger tables and banks are CSV with a header row. The DQ series may be
// CSV time,value pairs or a Prometheus text exposition with per-sample
// timestamps, in which case the metric family name is the DQ channel.
//
// Loaders return plain column slices. They log one summary line per input
// and otherwise leave interpretation to the binning and rate packages.
package ingest
