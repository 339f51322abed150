package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "country_shp_file_stuff/World_Countries_Generalized.shp", cfg.Convert.Input)
	assert.Equal(t, "countries.geojson", cfg.Convert.Output)
	assert.Empty(t, cfg.Convert.FilterField)
	assert.Empty(t, cfg.Convert.BBox)
	assert.Equal(t, -1, cfg.Convert.Precision)
	assert.False(t, cfg.Convert.Indent)
	assert.Equal(t, "geojson", cfg.Batch.OutDir)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: json
convert:
  input: world.shp
  filter_field: CONTINENT
  filter_value: Africa
  precision: 6
batch:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "world.shp", cfg.Convert.Input)
	assert.Equal(t, "CONTINENT", cfg.Convert.FilterField)
	assert.Equal(t, "Africa", cfg.Convert.FilterValue)
	assert.Equal(t, 6, cfg.Convert.Precision)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, "countries.geojson", cfg.Convert.Output)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
convert:
  output: from-file.geojson
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOCONVERT_CONVERT_OUTPUT", "from-env.geojson")
	t.Setenv("GEOCONVERT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "from-env.geojson", cfg.Convert.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("GEOCONVERT_BATCH_CONCURRENCY", "2")
	t.Setenv("GEOCONVERT_CONVERT_FILTER_FIELD", "CONTINENT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.Equal(t, "CONTINENT", cfg.Convert.FilterField)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("convert: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Convert.Input = "in.shp"
	cfg.Convert.Output = "out.geojson"
	cfg.Batch.OutDir = "geojson"
	cfg.Batch.Concurrency = 4
	return cfg
}

func TestValidateConvert(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("convert"))

	cfg.Convert.Input = ""
	cfg.Convert.Output = ""
	err := cfg.Validate("convert")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "convert.input is required")
	assert.Contains(t, err.Error(), "convert.output is required")
}

func TestValidateBatchConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 64")

	cfg.Batch.Concurrency = 65
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.Concurrency = 64
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidatePrecision(t *testing.T) {
	cfg := validDefaults()
	cfg.Convert.Precision = -2
	err := cfg.Validate("convert")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "convert.precision")

	cfg.Convert.Precision = 16
	assert.Error(t, cfg.Validate("convert"))

	for _, p := range []int{-1, 0, 15} {
		cfg.Convert.Precision = p
		assert.NoError(t, cfg.Validate("convert"), "precision %d", p)
	}
}

func TestValidateFilterValueWithoutField(t *testing.T) {
	cfg := validDefaults()
	cfg.Convert.FilterValue = "Africa"
	err := cfg.Validate("convert")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "filter_field")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
