package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the run file and
// not set on the command line.
const (
	DefaultStat          = "newsnr"
	DefaultStatThreshold = 6.0
	DefaultFLower        = 15.0
	DefaultNTimeBins     = 100
)

// Options is the full configuration of one rates run. Fields map 1:1 to
// the command-line flags.
type Options struct {
	// Detector is the interferometer whose triggers are analyzed.
	Detector string `yaml:"detector"`

	// TrigFile is the trigger table to read.
	TrigFile string `yaml:"trig_file"`

	// DQFiles are the data-quality series files, concatenated in order.
	DQFiles []string `yaml:"dq_files"`

	// DQChannel selects the metric family in exposition-format DQ files
	// that carry more than one.
	DQChannel string `yaml:"dq_channel"`

	// BankFile is the template bank table.
	BankFile string `yaml:"bank_file"`

	// OutputFile is where the rate artifact is written.
	OutputFile string `yaml:"output_file"`

	// Stat names the ranking statistic: snr | newsnr | newsnr_psdvar.
	Stat string `yaml:"stat"`

	// StatThreshold is the minimum statistic value for a trigger to count.
	StatThreshold float64 `yaml:"stat_threshold"`

	// FLower is the low-frequency cutoff in Hz for template durations.
	FLower float64 `yaml:"f_lower"`

	// Bins are template bin definitions, "name:field op value" each.
	// Empty means one catch-all bin.
	Bins []string `yaml:"bins"`

	// NTimeBins is the number of DQ percentile bins.
	NTimeBins int `yaml:"n_time_bins"`

	// PruneNumber is how many loudest triggers to remove per template bin
	// before aggregation. Zero disables pruning.
	PruneNumber int `yaml:"prune_number"`

	// PruneWindow is the removal half-window in seconds around each
	// pruned trigger.
	PruneWindow int64 `yaml:"prune_window"`
}

// Default returns Options pre-populated with default values.
func Default() *Options {
	return &Options{
		Stat:          DefaultStat,
		StatThreshold: DefaultStatThreshold,
		FLower:        DefaultFLower,
		NTimeBins:     DefaultNTimeBins,
	}
}

// Load reads a YAML run file over the defaults. The result is not
// validated: flags may still fill required fields, so callers validate
// the merged options.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	opts := Default()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return opts, nil
}

// Validate checks required fields and value ranges on the merged options.
func (o *Options) Validate() error {
	if o.Detector == "" {
		return fmt.Errorf("config: detector is required")
	}
	if o.TrigFile == "" {
		return fmt.Errorf("config: trig_file is required")
	}
	if len(o.DQFiles) == 0 {
		return fmt.Errorf("config: at least one dq_file is required")
	}
	if o.BankFile == "" {
		return fmt.Errorf("config: bank_file is required")
	}
	if o.OutputFile == "" {
		return fmt.Errorf("config: output_file is required")
	}
	switch o.Stat {
	case "snr", "newsnr", "newsnr_psdvar":
	default:
		return fmt.Errorf("config: unknown stat %q", o.Stat)
	}
	if o.StatThreshold <= 0 {
		return fmt.Errorf("config: stat_threshold must be positive")
	}
	if o.FLower <= 0 {
		return fmt.Errorf("config: f_lower must be positive")
	}
	if o.NTimeBins < 1 {
		return fmt.Errorf("config: n_time_bins must be at least 1")
	}
	if o.PruneNumber < 0 {
		return fmt.Errorf("config: prune_number cannot be negative")
	}
	if o.PruneWindow < 0 {
		return fmt.Errorf("config: prune_window cannot be negative")
	}
	if o.PruneNumber > 0 && o.PruneWindow == 0 {
		return fmt.Errorf("config: prune_window is required when prune_number is set")
	}
	return nil
}
