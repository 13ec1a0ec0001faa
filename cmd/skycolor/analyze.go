package main

import(
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abworrall/skycolor/pkg/batch"
	"github.com/abworrall/skycolor/pkg/colorize"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

var(
	fAnalyzeCSV   string
	fAnalyzePlot  string
	fAnalyzeLimit int
	fAnalyzeWorkers int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze DIR",
	Short: "Classify every lum_* frame in a directory, for tuning the mode thresholds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := colorize.NewConfig()
		if fConfigFile != "" {
			var err error
			if cfg, err = colorize.LoadConfig(fConfigFile); err != nil {
				return err
			}
		}
		th := cfg.ClassifierThresholds()

		files, err := batch.LumFiles(args[0], fAnalyzeLimit)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no lum_* files in '%s'", args[0])
		}

		rows, err := batch.AnalyzeModes(cmd.Context(), files, th, fAnalyzeWorkers)
		if err != nil {
			return err
		}

		out, err := os.Create(fAnalyzeCSV)
		if err != nil {
			return fmt.Errorf("open+w '%s': %w", fAnalyzeCSV, err)
		}
		defer out.Close()
		if err := batch.WriteAnalysisCSV(out, rows, th); err != nil {
			return fmt.Errorf("write '%s': %w", fAnalyzeCSV, err)
		}
		monitoring.Logf("wrote %d rows to %s", len(rows), fAnalyzeCSV)

		for _, ms := range batch.SummarizeModes(rows, th) {
			fmt.Println(ms)
		}
		if cfg.Verbosity > 0 || fVerbosity > 0 {
			h := batch.RatioHistogram(rows)
			monitoring.Logf("corner/center ratio x100 (closed_ratio=%.2f):\n%v", th.ClosedRatio, &h)
		}

		if fAnalyzePlot != "" {
			if err := batch.PlotModes(rows, th, fAnalyzePlot); err != nil {
				return err
			}
			monitoring.Logf("wrote %s", fAnalyzePlot)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&fAnalyzeCSV, "csv", "modes.csv", "CSV output")
	analyzeCmd.Flags().StringVar(&fAnalyzePlot, "plot", "", "if set, write a ratio/delta scatter PNG here")
	analyzeCmd.Flags().IntVar(&fAnalyzeLimit, "limit", 0, "only the newest N frames (0: all)")
	analyzeCmd.Flags().IntVar(&fAnalyzeWorkers, "workers", 0, "parallel frames (0: one per CPU)")
	rootCmd.AddCommand(analyzeCmd)
}
