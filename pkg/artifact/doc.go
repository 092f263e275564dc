// Package artifact defines the JSON containers exchanged between the
// dqsift tools: the trigger-rate set written by dqsift-rates and the
// log-likelihood set consumed by dqsift-plot.
//
// Containers are written atomically (temp file plus rename) so a failed
// run never leaves a partial artifact behind. Readers validate structural
// invariants on load and reject malformed containers before any analysis
// or rendering starts.
package artifact
