package main

import(
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/abworrall/skycolor/pkg/batch"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

var(
	fBatchOut   string
	fBatchLimit int
	batchFlags  *pipelineFlags
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Colorize every lum_*/raw_* pair in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := batchFlags.processor(cmd)
		if err != nil {
			return err
		}

		d, err := batch.DiscoverPairs(args[0], fBatchLimit)
		if err != nil {
			return err
		}
		if len(d.Pairs) == 0 {
			return fmt.Errorf("no lum_/raw_ pairs in '%s' (%d unmatched files)", args[0], len(d.Unmatched))
		}
		monitoring.Logf("%d pairs, %d unmatched files, %d stages", len(d.Pairs), len(d.Unmatched), len(p.Stages))

		bar := progressbar.NewOptions(len(d.Pairs),
			progressbar.OptionSetDescription("Colorizing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)

		job := batch.FrameJob{Processor: p, OutDir: fBatchOut}
		r := batch.Runner{
			Workers: p.Config.Workers,
			Process: job.ProcessPair,
			OnDone: func(st batch.ItemStatus) {
				bar.Add(1)
				if st.OK() {
					monitoring.Logf("OK     %s %s (%s)", st.Pair.ID, st.Mode, st.Duration.Round(time.Millisecond))
				} else {
					monitoring.Logf("FAILED %s: %v", st.Pair.ID, st.Err)
				}
			},
		}
		statuses := r.Run(cmd.Context(), d.Pairs)
		bar.Finish()
		fmt.Fprintln(os.Stderr)

		sum := batch.Summarize(statuses, len(d.Unmatched))
		if err := sum.WriteTable(os.Stdout); err != nil {
			return err
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d pairs failed", sum.Failed, sum.Total)
		}
		return nil
	},
}

func init() {
	batchFlags = addPipelineFlags(batchCmd)
	batchCmd.Flags().StringVarP(&fBatchOut, "out", "o", "out", "output dir")
	batchCmd.Flags().IntVar(&fBatchLimit, "limit", 0, "only the newest N pairs (0: all)")
	rootCmd.AddCommand(batchCmd)
}
