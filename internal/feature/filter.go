package feature

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/twpayne/go-geom"
)

// Predicate decides whether a feature is retained.
type Predicate interface {
	Match(f *Feature) bool
}

// Equals matches features whose attribute Field equals Value.
// Comparison is case-sensitive on the attribute's string form; nil never matches.
type Equals struct {
	Field string
	Value string
}

// Match implements Predicate.
func (e Equals) Match(f *Feature) bool {
	v, ok := f.Properties[e.Field]
	if !ok || v == nil {
		return false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return false
	}
	return s == e.Value
}

// ParseEquals parses a FIELD=VALUE expression.
func ParseEquals(expr string) (Equals, error) {
	field, value, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Equals{}, eris.Errorf("feature: malformed filter %q, want FIELD=VALUE", expr)
	}
	return Equals{Field: field, Value: value}, nil
}

// Within matches features whose bounding box intersects Bound.
type Within struct {
	Bound orb.Bound
}

// Match implements Predicate.
func (w Within) Match(f *Feature) bool {
	if f.Geometry == nil {
		return false
	}
	b := geom.NewBounds(geom.XY).Extend(f.Geometry)
	if b.IsEmpty() {
		return false
	}
	fb := orb.Bound{
		Min: orb.Point{b.Min(0), b.Min(1)},
		Max: orb.Point{b.Max(0), b.Max(1)},
	}
	return fb.Intersects(w.Bound)
}

// ParseBBox parses "minx,miny,maxx,maxy" into a bound.
func ParseBBox(bbox string) (orb.Bound, error) {
	cs := strings.Split(bbox, ",")
	if len(cs) != 4 {
		return orb.Bound{}, eris.Errorf("feature: malformed bbox %q, found %d values", bbox, len(cs))
	}
	var vals [4]float64
	for i, c := range cs {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return orb.Bound{}, eris.Wrapf(err, "feature: parse bbox value %q", c)
		}
		vals[i] = v
	}
	if vals[0] > vals[2] || vals[1] > vals[3] {
		return orb.Bound{}, eris.Errorf("feature: bbox %q has min greater than max", bbox)
	}
	return orb.Bound{Min: orb.Point{vals[0], vals[1]}, Max: orb.Point{vals[2], vals[3]}}, nil
}

// Filter returns a new collection holding the features that match every
// predicate, in their original order. With no predicates all features pass.
func (c *Collection) Filter(preds ...Predicate) (*Collection, error) {
	for _, p := range preds {
		if eq, ok := p.(Equals); ok && !c.HasField(eq.Field) {
			return nil, eris.Errorf("feature: unknown attribute %q", eq.Field)
		}
	}

	out := &Collection{
		Name:   c.Name,
		Fields: c.Fields,
	}
	if len(preds) == 0 {
		out.Features = c.Features
		out.NullGeometries = c.NullGeometries
		return out, nil
	}

	out.Features = make([]*Feature, 0, len(c.Features))
	for _, f := range c.Features {
		if matchAll(f, preds) {
			out.Features = append(out.Features, f)
			if f.Geometry == nil {
				out.NullGeometries++
			}
		}
	}
	return out, nil
}

func matchAll(f *Feature, preds []Predicate) bool {
	for _, p := range preds {
		if !p.Match(f) {
			return false
		}
	}
	return true
}
