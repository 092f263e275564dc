// Package config holds the options of a rates run.
//
// Options can come from command-line flags alone or start from a YAML
// run file, with explicitly-set flags taking precedence. Validation runs
// once on the merged result, so a run file may legitimately omit fields
// the command line supplies.
package config
