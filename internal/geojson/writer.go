// Package geojson serializes feature collections as GeoJSON FeatureCollections.
// Polygon rings keep their shapefile winding (outer rings clockwise), so
// output is not reoriented to the RFC 7946 right-hand rule.
package geojson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geoconvert/internal/feature"
)

type options struct {
	maxDecimalDigits int // <0 keeps full precision
	indent           bool
}

// Option configures Write and WriteFile.
type Option func(*options)

// WithMaxDecimalDigits rounds coordinates to n decimal places. Negative n keeps full precision.
func WithMaxDecimalDigits(n int) Option {
	return func(o *options) { o.maxDecimalDigits = n }
}

// WithIndent pretty-prints the output.
func WithIndent(indent bool) Option {
	return func(o *options) { o.indent = indent }
}

type collectionJSON struct {
	Type     string        `json:"type"`
	Name     string        `json:"name,omitempty"`
	Features []featureJSON `json:"features"`
}

type featureJSON struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties properties        `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// properties marshals attributes in schema order rather than map order.
type properties struct {
	keys   []string
	values map[string]any
}

func (p properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(p.values[k]))
		if err != nil {
			return nil, eris.Wrapf(err, "geojson: encode property %q", k)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue maps values JSON cannot represent to null.
func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// Write encodes c as a GeoJSON FeatureCollection to w.
func Write(w io.Writer, c *feature.Collection, opts ...Option) error {
	o := options{maxDecimalDigits: -1}
	for _, opt := range opts {
		opt(&o)
	}

	var encOpts []geojson.EncodeGeometryOption
	if o.maxDecimalDigits >= 0 {
		encOpts = append(encOpts, geojson.EncodeGeometryWithMaxDecimalDigits(o.maxDecimalDigits))
	}

	keys := c.FieldNames()
	out := collectionJSON{
		Type:     "FeatureCollection",
		Name:     c.Name,
		Features: make([]featureJSON, 0, len(c.Features)),
	}
	for _, f := range c.Features {
		var g *geojson.Geometry
		if f.Geometry != nil {
			var err error
			g, err = geojson.Encode(f.Geometry, encOpts...)
			if err != nil {
				return eris.Wrapf(err, "geojson: encode geometry of feature %d", f.Index)
			}
		}
		out.Features = append(out.Features, featureJSON{
			Type:       "Feature",
			ID:         strconv.Itoa(f.Index),
			Properties: properties{keys: keys, values: f.Properties},
			Geometry:   g,
		})
	}

	enc := json.NewEncoder(w)
	if o.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return eris.Wrap(err, "geojson: encode collection")
	}
	return nil
}

// WriteFile creates or overwrites path with the encoded collection. Output is
// written to a sibling temp file and renamed into place once complete.
func WriteFile(path string, c *feature.Collection, opts ...Option) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "geojson: create %s", path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	bw := bufio.NewWriter(tmp)
	if err := Write(bw, c, opts...); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "geojson: write %s", path)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "geojson: chmod %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "geojson: close %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "geojson: rename into %s", path)
	}

	zap.L().Debug("geojson written",
		zap.String("path", path),
		zap.Int("features", c.Len()),
	)
	return nil
}
