package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/config"
	"github.com/sells-group/geoconvert/internal/convert"
	"github.com/sells-group/geoconvert/internal/feature"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output]",
	Short: "Convert a shapefile to a GeoJSON file",
	Long: `Loads every feature of a shapefile and writes them as a GeoJSON FeatureCollection.

The input may be a .shp file, a .zip archive containing one, or an http(s) URL
to such an archive. Input and output default to convert.input and
convert.output from config.

Examples:
  geoconvert convert world.shp world.geojson
  geoconvert convert --where CONTINENT=Africa world.shp africa.geojson
  geoconvert convert --bbox -20,-35,52,38 --precision 6 world.zip africa.geojson`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cc, err := convertConfig(cmd, args, cfg.Convert)
		if err != nil {
			return err
		}

		c := *cfg
		c.Convert = cc
		if err := c.Validate("convert"); err != nil {
			return err
		}

		opts, err := convertOptions(cc)
		if err != nil {
			return err
		}

		zap.L().Info("starting conversion",
			zap.String("input", opts.Input),
			zap.String("output", opts.Output),
			zap.String("filter_field", opts.FilterField),
		)

		res, err := convert.Run(ctx, opts)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully converted %s to %s (%d of %d features)\n",
			res.Input, res.Output, res.Written, res.Read)
		return nil
	},
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

// addConvertFlags registers the filter and output flags shared by convert and batch.
func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().String("where", "", "keep only features with FIELD=VALUE (case-sensitive)")
	cmd.Flags().String("bbox", "", "keep only features intersecting minx,miny,maxx,maxy")
	cmd.Flags().Int("precision", -1, "coordinate decimal places (default: from config, -1 keeps full precision)")
	cmd.Flags().Bool("indent", false, "pretty-print the GeoJSON output")
}

// convertConfig overlays positional args and changed flags on the configured defaults.
func convertConfig(cmd *cobra.Command, args []string, base config.ConvertConfig) (config.ConvertConfig, error) {
	cc := base
	if len(args) > 0 {
		cc.Input = args[0]
	}
	if len(args) > 1 {
		cc.Output = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("where") {
		where, _ := flags.GetString("where")
		eq, err := feature.ParseEquals(where)
		if err != nil {
			return cc, err
		}
		cc.FilterField = eq.Field
		cc.FilterValue = eq.Value
	}
	if flags.Changed("bbox") {
		cc.BBox, _ = flags.GetString("bbox")
	}
	if flags.Changed("precision") {
		cc.Precision, _ = flags.GetInt("precision")
	}
	if flags.Changed("indent") {
		cc.Indent, _ = flags.GetBool("indent")
	}
	return cc, nil
}

// convertOptions turns the effective config into pipeline options.
func convertOptions(cc config.ConvertConfig) (convert.Options, error) {
	opts := convert.Options{
		Input:       cc.Input,
		Output:      cc.Output,
		FilterField: cc.FilterField,
		FilterValue: cc.FilterValue,
		Indent:      cc.Indent,
		TempDir:     cc.TempDir,
	}
	if cc.Precision >= 0 {
		p := cc.Precision
		opts.Precision = &p
	}
	if cc.BBox != "" {
		b, err := feature.ParseBBox(cc.BBox)
		if err != nil {
			return opts, err
		}
		opts.BBox = &b
	}
	return opts, nil
}
