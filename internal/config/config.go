package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Convert ConvertConfig `yaml:"convert" mapstructure:"convert"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ConvertConfig configures a single conversion.
type ConvertConfig struct {
	Input       string `yaml:"input" mapstructure:"input"`
	Output      string `yaml:"output" mapstructure:"output"`
	FilterField string `yaml:"filter_field" mapstructure:"filter_field"`
	FilterValue string `yaml:"filter_value" mapstructure:"filter_value"`
	BBox        string `yaml:"bbox" mapstructure:"bbox"`
	Precision   int    `yaml:"precision" mapstructure:"precision"` // -1 keeps full precision
	Indent      bool   `yaml:"indent" mapstructure:"indent"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// BatchConfig configures directory conversions.
type BatchConfig struct {
	OutDir      string `yaml:"out_dir" mapstructure:"out_dir"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCONVERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("convert.input", "country_shp_file_stuff/World_Countries_Generalized.shp")
	v.SetDefault("convert.output", "countries.geojson")
	v.SetDefault("convert.filter_field", "")
	v.SetDefault("convert.filter_value", "")
	v.SetDefault("convert.bbox", "")
	v.SetDefault("convert.precision", -1)
	v.SetDefault("convert.indent", false)
	v.SetDefault("convert.temp_dir", "")
	v.SetDefault("batch.out_dir", "geojson")
	v.SetDefault("batch.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "convert":
		if c.Convert.Input == "" {
			errs = append(errs, "convert.input is required")
		}
		if c.Convert.Output == "" {
			errs = append(errs, "convert.output is required")
		}
	case "batch":
		if c.Batch.OutDir == "" {
			errs = append(errs, "batch.out_dir is required")
		}
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
			errs = append(errs, "batch.concurrency must be between 1 and 64")
		}
	case "inspect":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Convert.Precision < -1 || c.Convert.Precision > 15 {
		errs = append(errs, "convert.precision must be between -1 (full) and 15")
	}
	if c.Convert.FilterValue != "" && c.Convert.FilterField == "" {
		errs = append(errs, "convert.filter_value requires convert.filter_field")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
