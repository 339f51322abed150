// Package feature holds the in-memory feature collection shared by the
// shapefile loader, the filter step and the GeoJSON writer.
package feature

import (
	"github.com/twpayne/go-geom"
)

// Field describes one attribute column of a collection.
type Field struct {
	Name      string
	Type      byte // DBF type code: C, N, F, L, D
	Size      uint8
	Precision uint8
}

// Feature is a single geometry plus its named attributes.
type Feature struct {
	Index      int // row number in the source file
	Geometry   geom.T
	Properties map[string]any
}

// Collection is an ordered set of features sharing one schema.
type Collection struct {
	Name     string
	Fields   []Field
	Features []*Feature

	// NullGeometries counts features whose geometry is nil.
	NullGeometries int
}

// Len returns the number of features.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Features)
}

// HasField reports whether name is part of the schema.
func (c *Collection) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldNames returns the schema's column names in source order.
func (c *Collection) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// GeometryTypes returns the distinct geometry type names in first-seen order.
// Features without geometry are ignored.
func (c *Collection) GeometryTypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, f := range c.Features {
		if f.Geometry == nil {
			continue
		}
		name := TypeName(f.Geometry)
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	return types
}

// TypeName returns the GeoJSON type name of g.
func TypeName(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}
