package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/convert"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert every shapefile in a directory",
	Long: `Converts each .shp and .zip file directly inside <dir> to <out>/<name>.geojson.
Conversions run in parallel; a failed input does not stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := *cfg
		if cmd.Flags().Changed("out") {
			c.Batch.OutDir, _ = cmd.Flags().GetString("out")
		}
		if cmd.Flags().Changed("concurrency") {
			c.Batch.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		}

		cc, err := convertConfig(cmd, nil, c.Convert)
		if err != nil {
			return err
		}
		c.Convert = cc
		if err := c.Validate("batch"); err != nil {
			return err
		}

		base, err := convertOptions(cc)
		if err != nil {
			return err
		}

		inputs, err := convert.Discover(args[0])
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No shapefiles found in %s\n", args[0])
			return nil
		}

		zap.L().Info("starting batch conversion",
			zap.String("dir", args[0]),
			zap.String("out_dir", c.Batch.OutDir),
			zap.Int("inputs", len(inputs)),
			zap.Int("concurrency", c.Batch.Concurrency),
		)

		res, err := convert.Batch(ctx, inputs, c.Batch.OutDir, base, c.Batch.Concurrency)
		if err != nil {
			return err
		}

		formatBatchResult(cmd.OutOrStdout(), res)
		if len(res.Failed) > 0 {
			return eris.Errorf("batch: %d of %d conversions failed", len(res.Failed), len(inputs))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().String("out", "", "output directory (default: from config)")
	batchCmd.Flags().Int("concurrency", 0, "parallel conversions (default: from config or 4)")
	addConvertFlags(batchCmd)
	rootCmd.AddCommand(batchCmd)
}

// formatBatchResult writes one row per input to w.
func formatBatchResult(out io.Writer, res *convert.BatchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INPUT\tSTATUS\tFEATURES\tOUTPUT")
	_, _ = fmt.Fprintln(w, "-----\t------\t--------\t------")

	for _, r := range res.Results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", filepath.Base(r.Input), "ok", r.Written, r.Output)
	}

	failed := make([]string, 0, len(res.Failed))
	for input := range res.Failed {
		failed = append(failed, input)
	}
	sort.Strings(failed)
	for _, input := range failed {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", filepath.Base(input), "failed", "-", res.Failed[input])
	}
	_ = w.Flush()
}
