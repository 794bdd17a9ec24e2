package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/textenc"
)

const (
	// EnvPrefix namespaces every environment override
	EnvPrefix = "FISH"
	// DefaultConfigFile is looked up in the working directory when no
	// path is given
	DefaultConfigFile = "config.yaml"
)

// Config represents the complete application configuration
type Config struct {
	DataDir             string            `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir           string            `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	InputFile           string            `yaml:"input_file" envconfig:"INPUT_FILE"`
	InputSheet          string            `yaml:"input_sheet" envconfig:"INPUT_SHEET"`
	InputEncoding       string            `yaml:"input_encoding" envconfig:"INPUT_ENCODING" validate:"encoding"`
	DefaultSpecies      string            `yaml:"default_species" envconfig:"DEFAULT_SPECIES"`
	StartYear           int               `yaml:"start_year" envconfig:"START_YEAR" validate:"min=1800,max=2200"`
	EndYear             int               `yaml:"end_year" envconfig:"END_YEAR" validate:"gtefield=StartYear,max=2200"`
	MissingValueMarkers []string          `yaml:"missing_value_markers" envconfig:"MISSING_VALUE_MARKERS"`
	MissingValueDefault float64           `yaml:"missing_value_default" envconfig:"MISSING_VALUE_DEFAULT"`
	StatusColumnPattern string            `yaml:"status_column_pattern" envconfig:"STATUS_COLUMN_PATTERN" validate:"omitempty,regexp"`
	GroupBy             []string          `yaml:"group_by" envconfig:"GROUP_BY" validate:"min=1,dive,required"`
	IdentifierRenames   map[string]string `yaml:"identifier_renames" envconfig:"IDENTIFIER_RENAMES"`

	PlotStyle PlotStyleConfig `yaml:"plot_style" envconfig:"PLOT_STYLE"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`

	// source is the file the configuration was read from, if any
	source string
}

// PlotStyleConfig controls chart appearance
type PlotStyleConfig struct {
	FigureSize []float64 `yaml:"figure_size" envconfig:"FIGURE_SIZE" validate:"len=2,dive,gt=0"`
	LineColor  string    `yaml:"line_color" envconfig:"LINE_COLOR" validate:"required"`
	Marker     string    `yaml:"marker" envconfig:"MARKER" validate:"oneof=o s ^ x + * . none"`
	Grid       bool      `yaml:"grid" envconfig:"GRID"`
}

// AnalysisConfig controls aggregation
type AnalysisConfig struct {
	Mode               string  `yaml:"mode" envconfig:"MODE" validate:"oneof=sum mean"`
	ConfidenceInterval float64 `yaml:"confidence_interval" envconfig:"CONFIDENCE_INTERVAL" validate:"gte=0,lt=1"`
	MinSamples         int     `yaml:"min_samples" envconfig:"MIN_SAMPLES" validate:"min=1"`
	OutlierThreshold   float64 `yaml:"outlier_threshold" envconfig:"OUTLIER_THRESHOLD" validate:"gte=0"`
}

// ExportConfig controls written artifacts
type ExportConfig struct {
	CSVEncoding string   `yaml:"csv_encoding" envconfig:"CSV_ENCODING" validate:"encoding"`
	CSVBOM      bool     `yaml:"csv_bom" envconfig:"CSV_BOM"`
	Formats     []string `yaml:"formats" envconfig:"FORMATS" validate:"min=1,dive,oneof=csv xlsx"`
	PlotDPI     int      `yaml:"plot_dpi" envconfig:"PLOT_DPI" validate:"min=36,max=1200"`
	PlotFormat  string   `yaml:"plot_format" envconfig:"PLOT_FORMAT" validate:"oneof=png jpg jpeg svg pdf"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// ServerConfig contains HTTP server configuration for the serve command
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// Default returns the built-in configuration. It mirrors the FishStat
// capture export the tool was written for.
func Default() *Config {
	return &Config{
		DataDir:             "data",
		OutputDir:           "output",
		InputFile:           "fishstat_export_s_capture2020.csv",
		InputEncoding:       textenc.UTF8,
		DefaultSpecies:      "FCY",
		StartYear:           1950,
		EndYear:             2020,
		MissingValueMarkers: []string{".", "NA", ""},
		MissingValueDefault: 0,
		StatusColumnPattern: "^S",
		GroupBy:             []string{"Species"},
		IdentifierRenames: map[string]string{
			"Country (Country)":                               "Country",
			"ASFIS species (ASFIS species)":                   "Species",
			"FAO major fishing area (FAO major fishing area)": "Fishing Area",
		},
		PlotStyle: PlotStyleConfig{
			FigureSize: []float64{10, 6},
			LineColor:  "orange",
			Marker:     "o",
			Grid:       true,
		},
		Analysis: AnalysisConfig{
			Mode:               "sum",
			ConfidenceInterval: 0.95,
			MinSamples:         3,
			OutlierThreshold:   3.0,
		},
		Export: ExportConfig{
			CSVEncoding: textenc.UTF8,
			Formats:     []string{"csv"},
			PlotDPI:     300,
			PlotFormat:  "png",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/fishstat.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "fishstat",
			Environment:    "development",
			EnableTracing:  false,
			TraceExporter:  "stdout",
			EnableMetrics:  true,
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   20,
			},
		},
	}
}

// Load loads configuration from defaults, the config file and environment
// variables. path may be empty, in which case FISH_CONFIG and then
// config.yaml in the working directory are tried; a missing implicit file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.source = path
	} else if explicit {
		return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s not found", path), err).
			WithContext("path", path)
	}

	// Env overrides; fields without a matching variable keep their value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Unknown keys are rejected.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", filePath)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return apperrors.NewConfigError("failed to parse config file", err).WithContext("path", filePath)
	}

	return nil
}

// resolvePaths makes relative directories relative to the config file
func (c *Config) resolvePaths() {
	if c.source == "" {
		return
	}
	base := filepath.Dir(c.source)
	for _, p := range []*string{&c.DataDir, &c.OutputDir, &c.Logging.FilePath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Source returns the config file path that was loaded, or "" when the
// configuration came from defaults and environment only.
func (c *Config) Source() string {
	return c.source
}

// Validate checks every field and reports all failures in one CONFIG error
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, formatFieldError(fe))
	}

	return apperrors.NewConfigError("invalid configuration: "+strings.Join(problems, "; "), nil).
		WithContext("fields", problems)
}

// newValidator registers the YAML tag as field name plus the custom rules
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		_, err := textenc.Lookup(fl.Field().String())
		return err == nil
	})

	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})

	return v
}

// formatFieldError renders a validator error using the YAML key path
func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s: must be <= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s: must be > %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s: must be < %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s: must have %s items", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s: must be >= start_year", field)
	case "encoding":
		return fmt.Sprintf("%s: unknown encoding %q", field, fe.Value())
	case "regexp":
		return fmt.Sprintf("%s: invalid regular expression %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s validation", field, fe.Tag())
	}
}
