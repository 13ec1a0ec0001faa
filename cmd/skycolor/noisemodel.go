package main

import(
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/abworrall/skycolor/pkg/frameio"
	"github.com/abworrall/skycolor/pkg/monitoring"
	"github.com/abworrall/skycolor/pkg/noisemodel"
)

var(
	fModelOut   string
	fModelName  string
	fModelOpts  = noisemodel.DefaultOptions()
	fModelNoSigma bool
)

var noisemodelCmd = &cobra.Command{
	Use:   "noisemodel FILE_OR_DIR...",
	Short: "Build a per-pixel low percentile background model from many frames",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandFiles(args)
		if err != nil {
			return err
		}
		opts := fModelOpts
		opts.ComputeSigma = !fModelNoSigma

		monitoring.Logf("building percentile model: p=%g tile=%d median_passes=%d from %d files",
			opts.Percentile, opts.Tile, opts.MedianPasses, len(files))

		var bar *progressbar.ProgressBar
		progress := func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Tiles"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
				)
			}
			bar.Set(done)
		}

		m, err := noisemodel.Build(cmd.Context(), files, noisemodel.LoadFrame, opts, progress)
		if bar != nil {
			bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return err
		}

		if err := os.MkdirAll(fModelOut, 0755); err != nil {
			return err
		}
		written, err := m.Save(fModelOut, fModelName)
		for _, f := range written {
			monitoring.Logf("wrote %s", f)
		}
		return err
	},
}

// expandFiles turns dirs into the decodable files inside them.
func expandFiles(args []string) ([]string, error) {
	files := []string{}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && frameio.IsSupported(e.Name()) {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func init() {
	f := noisemodelCmd.Flags()
	f.StringVarP(&fModelOut, "out", "o", ".", "output dir")
	f.StringVar(&fModelName, "name", "lum", "output file prefix: <name>_model.tif, <name>_sigma.tif, <name>_stats.json")
	f.Float64Var(&fModelOpts.Percentile, "percentile", fModelOpts.Percentile, "per-pixel low percentile (5..20 typical)")
	f.IntVar(&fModelOpts.Tile, "tile", fModelOpts.Tile, "tile size, pixels")
	f.IntVar(&fModelOpts.MedianPasses, "median-passes", fModelOpts.MedianPasses, "3x3 median passes over the model")
	f.IntVar(&fModelOpts.Workers, "workers", 0, "parallel tiles (0: one per CPU)")
	f.BoolVar(&fModelNoSigma, "no-sigma", false, "skip the residual sigma plane")
	rootCmd.AddCommand(noisemodelCmd)
}
