package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dqsift/dqsift/pkg/artifact"
	"github.com/dqsift/dqsift/plot/internal/render"
)

var (
	inputPath  string
	detector   string
	outputPath string
	title      string
	smooth     int
	watch      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dqsift-plot",
	Short: "Plot per-flag log-likelihood statistics for one detector",
	Long: `dqsift-plot renders a percentile-binned log-likelihood artifact as a
chart with one bar per DQ flag, showing the log likelihood ratio while
the flag was active, overlaid with the percentage of livetime each flag
was on. Every flag must carry exactly two states, off and on.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&inputPath, "input", "", "likelihood artifact JSON file")
	f.StringVar(&detector, "detector", "", "detector to plot, e.g. H1")
	f.StringVar(&outputPath, "output-file", "", "output image path, .png or .svg")
	f.StringVar(&title, "title", "", "chart title; derived from the detector when empty")
	f.IntVar(&smooth, "smooth", 0, "moving-median window for the log-likelihood trend; 0 disables")
	f.BoolVar(&watch, "watch", false, "keep running and re-render when the input changes")
	f.BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("dqsift-plot failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if inputPath == "" || detector == "" || outputPath == "" {
		return fmt.Errorf("flags --input, --detector and --output-file are required")
	}

	slog.Info("dqsift-plot starting",
		"input", inputPath, "detector", detector, "output", outputPath)

	refresh := func() error {
		ls, err := artifact.ReadLikelihoodSet(inputPath)
		if err != nil {
			return err
		}
		dl, err := ls.Detector(detector)
		if err != nil {
			return err
		}
		return render.Render(dl, detector, outputPath, render.Options{Title: title, Smooth: smooth})
	}

	if err := refresh(); err != nil {
		return err
	}
	slog.Info("chart written", "path", outputPath)

	if !watch {
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return render.Watch(ctx, inputPath, refresh)
}
