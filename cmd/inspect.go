package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geoconvert/internal/feature"
	"github.com/sells-group/geoconvert/internal/shapefile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Show the schema, geometry types and feature count of a shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format, _ := cmd.Flags().GetString("format")
		if format != "text" && format != "yaml" {
			return eris.Errorf("inspect: unknown format %q", format)
		}

		coll, err := shapefile.Open(ctx, args[0], shapefile.WithTempDir(cfg.Convert.TempDir))
		if err != nil {
			return err
		}

		report := buildReport(coll)
		if format == "yaml" {
			return writeReportYAML(cmd.OutOrStdout(), report)
		}
		formatReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("format", "text", "output format: text or yaml")
	rootCmd.AddCommand(inspectCmd)
}

type fieldReport struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Size      uint8  `yaml:"size"`
	Precision uint8  `yaml:"precision"`
}

type inspectReport struct {
	Name           string        `yaml:"name"`
	Features       int           `yaml:"features"`
	NullGeometries int           `yaml:"null_geometries"`
	GeometryTypes  []string      `yaml:"geometry_types"`
	BBox           []float64     `yaml:"bbox,omitempty,flow"`
	Fields         []fieldReport `yaml:"fields"`
}

// buildReport summarizes a loaded collection.
func buildReport(c *feature.Collection) inspectReport {
	r := inspectReport{
		Name:           c.Name,
		Features:       c.Len(),
		NullGeometries: c.NullGeometries,
		GeometryTypes:  c.GeometryTypes(),
	}
	for _, f := range c.Fields {
		r.Fields = append(r.Fields, fieldReport{
			Name:      f.Name,
			Type:      string(f.Type),
			Size:      f.Size,
			Precision: f.Precision,
		})
	}

	b := geom.NewBounds(geom.XY)
	for _, f := range c.Features {
		if f.Geometry != nil {
			b.Extend(f.Geometry)
		}
	}
	if !b.IsEmpty() {
		r.BBox = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
	}
	return r
}

func writeReportYAML(out io.Writer, r inspectReport) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "inspect: encode yaml")
	}
	return eris.Wrap(enc.Close(), "inspect: close yaml encoder")
}

// formatReport writes a human-readable summary to w.
func formatReport(out io.Writer, r inspectReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", r.Name)
	_, _ = fmt.Fprintf(w, "Features:\t%d\n", r.Features)
	_, _ = fmt.Fprintf(w, "Null geometries:\t%d\n", r.NullGeometries)
	_, _ = fmt.Fprintf(w, "Geometry:\t%s\n", strings.Join(r.GeometryTypes, ", "))
	if len(r.BBox) == 4 {
		_, _ = fmt.Fprintf(w, "BBox:\t%g, %g, %g, %g\n", r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3])
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tTYPE\tSIZE\tPRECISION")
	_, _ = fmt.Fprintln(w, "-----\t----\t----\t---------")
	for _, f := range r.Fields {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", f.Name, f.Type, f.Size, f.Precision)
	}
	_ = w.Flush()
}
