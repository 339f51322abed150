package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geoconvert/internal/feature"
	"github.com/sells-group/geoconvert/internal/shapefile/shptest"
)

func TestInspectCommand_Text(t *testing.T) {
	dir := t.TempDir()
	in := shptest.Countries(t, dir)

	out, err := execute(t, dir, "inspect", in)
	require.NoError(t, err)
	assert.Contains(t, out, "countries")
	assert.Contains(t, out, "Polygon, MultiPolygon")
	assert.Contains(t, out, "CONTINENT")
	assert.Contains(t, out, "POP_EST")
}

func TestInspectCommand_YAML(t *testing.T) {
	dir := t.TempDir()
	in := shptest.Countries(t, dir)

	out, err := execute(t, dir, "inspect", "--format", "yaml", in)
	require.NoError(t, err)

	var r inspectReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, "countries", r.Name)
	assert.Equal(t, 3, r.Features)
	assert.Equal(t, []string{"Polygon", "MultiPolygon"}, r.GeometryTypes)
	assert.Equal(t, []float64{-5, 22, 152, 52}, r.BBox)
	require.Len(t, r.Fields, 4)
	assert.Equal(t, "GDP_MD", r.Fields[3].Name)
	assert.Equal(t, "F", r.Fields[3].Type)
}

func TestInspectCommand_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	in := shptest.Countries(t, dir)

	_, err := execute(t, dir, "inspect", "--format", "xml", in)
	assert.Error(t, err)
}

func TestFormatReport(t *testing.T) {
	var buf bytes.Buffer
	formatReport(&buf, inspectReport{
		Name:          "world",
		Features:      2,
		GeometryTypes: []string{"Point"},
		BBox:          []float64{0, 0, 1, 1},
		Fields:        []fieldReport{{Name: "NAME", Type: "C", Size: 40}},
	})

	output := buf.String()
	assert.Contains(t, output, "world")
	assert.Contains(t, output, "Point")
	assert.Contains(t, output, "FIELD")
	assert.Contains(t, output, "NAME")
}

func TestBuildReport_NullGeometry(t *testing.T) {
	c := &feature.Collection{
		Name: "cities",
		Features: []*feature.Feature{
			{Index: 0, Geometry: geom.NewPointFlat(geom.XY, []float64{1, 2})},
			{Index: 1},
		},
		NullGeometries: 1,
	}

	r := buildReport(c)
	assert.Equal(t, 2, r.Features)
	assert.Equal(t, 1, r.NullGeometries)
	assert.Equal(t, []string{"Point"}, r.GeometryTypes)
	assert.Equal(t, []float64{1, 2, 1, 2}, r.BBox)
}
