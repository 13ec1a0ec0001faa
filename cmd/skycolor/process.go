package main

import(
	"github.com/spf13/cobra"

	"github.com/abworrall/skycolor/pkg/batch"
	"github.com/abworrall/skycolor/pkg/monitoring"
)

var fProcessOut string
var processFlags *pipelineFlags

var processCmd = &cobra.Command{
	Use:   "process LUM_FILE RAW_FILE",
	Short: "Colorize one capture pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := processFlags.processor(cmd)
		if err != nil {
			return err
		}
		if p.Config.Verbosity < 1 {
			p.Config.Verbosity = 1 // a single frame always reports what it did
		}

		job := batch.FrameJob{Processor: p, OutDir: fProcessOut}
		pair := batch.Pair{ID: batch.IDFromPath(args[0]), LumPath: args[0], ColorPath: args[1]}
		st, err := job.ProcessPair(cmd.Context(), pair)
		if err != nil {
			return err
		}
		monitoring.Logf("wrote %s", st.OutputPath)
		return nil
	},
}

func init() {
	processFlags = addPipelineFlags(processCmd)
	processCmd.Flags().StringVarP(&fProcessOut, "out", "o", ".", "output dir")
	rootCmd.AddCommand(processCmd)
}
