package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geoconvert/internal/convert"
	"github.com/sells-group/geoconvert/internal/shapefile/shptest"
)

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	shptest.Countries(t, src)
	shptest.Write(t, src, "cities", shp.POINT, []shp.Field{shp.StringField("NAME", 10)}, []shptest.Record{
		{Shape: &shp.Point{X: 1, Y: 1}, Attrs: []any{"a"}},
	})

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, dir, "batch", "--out", outDir, "--concurrency", "2", src)
	require.NoError(t, err)
	assert.Contains(t, out, "countries.shp")
	assert.Contains(t, out, "cities.shp")
	assert.FileExists(t, filepath.Join(outDir, "countries.geojson"))
	assert.FileExists(t, filepath.Join(outDir, "cities.geojson"))
}

func TestBatchCommand_Empty(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "batch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No shapefiles found")
}

func TestFormatBatchResult(t *testing.T) {
	res := &convert.BatchResult{
		Results: []*convert.Result{
			{Input: "/data/world.shp", Output: "out/world.geojson", Written: 177},
		},
		Failed: map[string]error{"/data/broken.shp": errors.New("bad file code 0")},
	}

	var buf bytes.Buffer
	formatBatchResult(&buf, res)

	output := buf.String()
	assert.Contains(t, output, "INPUT")
	assert.Contains(t, output, "world.shp")
	assert.Contains(t, output, "177")
	assert.Contains(t, output, "broken.shp")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "bad file code 0")
}
