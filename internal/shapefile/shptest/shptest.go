// Package shptest writes small shapefile fixtures for tests.
package shptest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Record is one fixture row. Attrs are written in field order and must be
// int, float64 or string values.
type Record struct {
	Shape shp.Shape
	Attrs []any
}

// Write creates <dir>/<name>.shp (with .shx and .dbf) and returns its path.
func Write(t testing.TB, dir, name string, shapeType shp.ShapeType, fields []shp.Field, records []Record) string {
	t.Helper()

	path := filepath.Join(dir, name+".shp")
	w, err := shp.Create(path, shapeType)
	require.NoError(t, err)

	require.NoError(t, w.SetFields(fields))
	for _, rec := range records {
		row := w.Write(rec.Shape)
		for i, v := range rec.Attrs {
			require.NoError(t, w.WriteAttribute(int(row), i, v))
		}
	}
	w.Close()

	// go-shp names the attribute table "<base>dbf"; move it next to the .shp.
	base := filepath.Join(dir, name)
	if _, err := os.Stat(base + "dbf"); err == nil {
		require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
	}

	return path
}

// WriteCodePage writes a .cpg sidecar next to shpPath.
func WriteCodePage(t testing.TB, shpPath, label string) {
	t.Helper()
	base := shpPath[:len(shpPath)-len(filepath.Ext(shpPath))]
	require.NoError(t, os.WriteFile(base+".cpg", []byte(label), 0o644))
}

// SetShapeType overwrites the shape type of the record starting at offset in
// the .shp main file.
func SetShapeType(t testing.TB, shpPath string, offset int64, st shp.ShapeType) {
	t.Helper()
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(st))
	Patch(t, shpPath, offset+8, b[:])
}

// Patch overwrites bytes of path at offset.
func Patch(t testing.TB, path string, offset int64, data []byte) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(data, offset)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// Square returns a closed clockwise ring with its lower-left corner at (x, y).
func Square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// Polygon builds a polygon shape from rings.
func Polygon(rings ...[]shp.Point) *shp.Polygon {
	return (*shp.Polygon)(shp.NewPolyLine(rings))
}

// CountryFields is the schema used by Countries.
func CountryFields() []shp.Field {
	return []shp.Field{
		shp.StringField("NAME", 40),
		shp.StringField("CONTINENT", 20),
		shp.NumberField("POP_EST", 12),
		shp.FloatField("GDP_MD", 16, 2),
	}
}

// Countries writes a three-country polygon shapefile with one African country.
func Countries(t testing.TB, dir string) string {
	t.Helper()
	return Write(t, dir, "countries", shp.POLYGON, CountryFields(), []Record{
		{Shape: Polygon(Square(-5, 42, 10)), Attrs: []any{"France", "Europe", 68000000, 2780000.5}},
		{Shape: Polygon(Square(25, 22, 10)), Attrs: []any{"Egypt", "Africa", 110000000, 404000.25}},
		{Shape: Polygon(Square(130, 31, 10), Square(150, 40, 2)), Attrs: []any{"Japan", "Asia", 125000000, 4230000.0}},
	})
}
