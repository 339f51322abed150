// Package convert runs the shapefile to GeoJSON pipeline: load, optional
// filter, write.
package convert

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/feature"
	"github.com/sells-group/geoconvert/internal/geojson"
	"github.com/sells-group/geoconvert/internal/shapefile"
)

// Options configures a single conversion.
type Options struct {
	Input  string
	Output string

	// FilterField and FilterValue select features whose attribute equals the
	// value. The filter is inactive when FilterField is empty.
	FilterField string
	FilterValue string

	// BBox, when non-nil, keeps only features intersecting the box.
	BBox *orb.Bound

	// Precision, when non-nil, rounds coordinates to that many decimal places.
	Precision *int
	Indent    bool
	TempDir   string
}

// Result summarizes a finished conversion.
type Result struct {
	Input   string
	Output  string
	Read    int
	Written int
	// NullGeometries counts written features whose geometry is null.
	NullGeometries int
	Duration       time.Duration
}

// Predicates returns the filters implied by the options.
func (o Options) Predicates() []feature.Predicate {
	var preds []feature.Predicate
	if o.FilterField != "" {
		preds = append(preds, feature.Equals{Field: o.FilterField, Value: o.FilterValue})
	}
	if o.BBox != nil {
		preds = append(preds, feature.Within{Bound: *o.BBox})
	}
	return preds
}

// Run converts opts.Input to GeoJSON at opts.Output. The input is fully
// loaded before the output file is touched.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "convert"),
		zap.String("input", opts.Input),
		zap.String("output", opts.Output),
	)

	if opts.Input == "" {
		return nil, eris.New("convert: input path is required")
	}
	if opts.Output == "" {
		return nil, eris.New("convert: output path is required")
	}

	coll, err := shapefile.Open(ctx, opts.Input, shapefile.WithTempDir(opts.TempDir))
	if err != nil {
		return nil, err
	}
	log.Debug("loaded features", zap.Int("features", coll.Len()), zap.Strings("fields", coll.FieldNames()))

	kept, err := coll.Filter(opts.Predicates()...)
	if err != nil {
		return nil, eris.Wrap(err, "convert: filter")
	}

	wopts := []geojson.Option{geojson.WithIndent(opts.Indent)}
	if opts.Precision != nil {
		wopts = append(wopts, geojson.WithMaxDecimalDigits(*opts.Precision))
	}
	if err := geojson.WriteFile(opts.Output, kept, wopts...); err != nil {
		return nil, err
	}

	res := &Result{
		Input:          opts.Input,
		Output:         opts.Output,
		Read:           coll.Len(),
		Written:        kept.Len(),
		NullGeometries: kept.NullGeometries,
		Duration:       time.Since(start),
	}
	log.Info("conversion complete",
		zap.Int("read", res.Read),
		zap.Int("written", res.Written),
		zap.Int("null_geometries", res.NullGeometries),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
