package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dqsift/dqsift/pkg/artifact"
	"github.com/dqsift/dqsift/rates/internal/binning"
	"github.com/dqsift/dqsift/rates/internal/config"
	"github.com/dqsift/dqsift/rates/internal/ingest"
	"github.com/dqsift/dqsift/rates/internal/rate"
	"github.com/dqsift/dqsift/rates/internal/stat"
)

var (
	configPath string
	verbose    bool
	opts       = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "dqsift-rates",
	Short: "Measure trigger rates conditioned on a data-quality time series",
	Long: `dqsift-rates measures how the single-detector trigger rate of a
matched-filter search varies with the state of a data-quality time
series.

Triggers above a ranking-statistic threshold are partitioned into named
template bins, the per-second DQ series is cut into percentile bins,
and the trigger rate of every template bin in every DQ state is
computed relative to that bin's mean rate. The rate ratios are written
as a JSON artifact for downstream likelihood reweighting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Flags())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "yaml config file; explicit flags override its values")
	f.StringVar(&opts.Detector, "detector", "", "detector whose triggers are analyzed, e.g. H1")
	f.StringVar(&opts.TrigFile, "trig-file", "", "trigger csv file (.gz, .bz2 and .xz are accepted)")
	f.StringArrayVar(&opts.DQFiles, "dq-file", nil, "data-quality series file; repeat for multiple segments")
	f.StringVar(&opts.DQChannel, "dq-channel", "", "metric family to read from exposition-format dq files")
	f.StringVar(&opts.BankFile, "bank-file", "", "template bank csv file")
	f.StringVar(&opts.OutputFile, "output-file", "", "path of the rate-set JSON artifact")
	f.StringVar(&opts.Stat, "stat", opts.Stat, "ranking statistic: snr, newsnr or newsnr_psdvar")
	f.Float64Var(&opts.StatThreshold, "stat-threshold", opts.StatThreshold, "keep triggers with statistic at or above this value")
	f.Float64Var(&opts.FLower, "f-lower", opts.FLower, "low frequency cutoff in Hz for template durations")
	f.StringArrayVar(&opts.Bins, "bin", nil, "template bin as name:field-op-value, e.g. bns:mchirp<1.74; repeatable")
	f.IntVar(&opts.NTimeBins, "n-time-bins", opts.NTimeBins, "number of percentile bins for the dq series")
	f.IntVar(&opts.PruneNumber, "prune-number", opts.PruneNumber, "loudest triggers to remove per template bin before binning")
	f.Int64Var(&opts.PruneWindow, "prune-window", opts.PruneWindow, "seconds removed on each side of a pruned trigger")
	f.BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("dqsift-rates failed", "err", err)
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("dqsift-rates starting", "config", configPath)

	if configPath != "" {
		if err := applyConfigFile(flags, configPath); err != nil {
			return err
		}
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	slog.Info("configuration resolved",
		"detector", opts.Detector,
		"stat", opts.Stat,
		"stat_threshold", opts.StatThreshold,
		"n_time_bins", opts.NTimeBins,
		"template_bins", len(opts.Bins),
	)

	ranking, err := stat.New(opts.Stat)
	if err != nil {
		return err
	}

	trig, err := ingest.LoadTriggers(opts.TrigFile, ingest.TriggerOptions{
		Detector:  opts.Detector,
		Ranking:   ranking,
		Threshold: opts.StatThreshold,
	})
	if err != nil {
		return err
	}

	series, err := ingest.LoadSeries(opts.DQFiles, ingest.SeriesOptions{Channel: opts.DQChannel})
	if err != nil {
		return err
	}

	bank, err := ingest.LoadBank(opts.BankFile)
	if err != nil {
		return err
	}

	binner, err := binning.NewBinner(series.Values, opts.NTimeBins)
	if err != nil {
		return err
	}
	idx, err := binner.Index(series.Times, series.Values)
	if err != nil {
		return err
	}

	bins, err := binning.PartitionBank(bank, opts.Bins, opts.FLower)
	if err != nil {
		return err
	}

	results, err := rate.Compute(trig, bins, idx, rate.Options{
		PruneCount:  opts.PruneNumber,
		PruneWindow: opts.PruneWindow,
	})
	if err != nil {
		return err
	}

	rs := &artifact.RateSet{
		Detector: opts.Detector,
		Times:    idx.Seconds(),
		Bins:     make(map[string]artifact.BinRates, len(results)),
	}
	for _, res := range results {
		rs.Names = append(rs.Names, res.Name)
		rs.Bins[res.Name] = artifact.BinRates{Rates: res.Rates, Locs: res.Locs}
	}
	if err := artifact.WriteRateSet(opts.OutputFile, rs); err != nil {
		return err
	}

	slog.Info("rate set written",
		"path", opts.OutputFile,
		"template_bins", len(rs.Names),
		"dq_states", len(rs.Times),
	)
	return nil
}

// applyConfigFile loads path and copies every value whose flag the user
// did not set on the command line. Explicit flags always win.
func applyConfigFile(f *pflag.FlagSet, path string) error {
	file, err := config.Load(path)
	if err != nil {
		return err
	}
	if !f.Changed("detector") {
		opts.Detector = file.Detector
	}
	if !f.Changed("trig-file") {
		opts.TrigFile = file.TrigFile
	}
	if !f.Changed("dq-file") {
		opts.DQFiles = file.DQFiles
	}
	if !f.Changed("dq-channel") {
		opts.DQChannel = file.DQChannel
	}
	if !f.Changed("bank-file") {
		opts.BankFile = file.BankFile
	}
	if !f.Changed("output-file") {
		opts.OutputFile = file.OutputFile
	}
	if !f.Changed("stat") {
		opts.Stat = file.Stat
	}
	if !f.Changed("stat-threshold") {
		opts.StatThreshold = file.StatThreshold
	}
	if !f.Changed("f-lower") {
		opts.FLower = file.FLower
	}
	if !f.Changed("bin") {
		opts.Bins = file.Bins
	}
	if !f.Changed("n-time-bins") {
		opts.NTimeBins = file.NTimeBins
	}
	if !f.Changed("prune-number") {
		opts.PruneNumber = file.PruneNumber
	}
	if !f.Changed("prune-window") {
		opts.PruneWindow = file.PruneWindow
	}
	return nil
}
