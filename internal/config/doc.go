// Package config loads fishstat settings.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources
// taking precedence:
//
//	1. Built-in defaults (Default)
//	2. A YAML file (config.yaml in the working directory, FISH_CONFIG, or --config)
//	3. Environment variables prefixed with FISH_
//
// # Environment Variables
//
// Nested sections use the section name as an infix:
//
//	FISH_START_YEAR=1950
//	FISH_DEFAULT_SPECIES=FCY
//	FISH_MISSING_VALUE_MARKERS=.,NA,
//	FISH_ANALYSIS_MIN_SAMPLES=3
//	FISH_EXPORT_CSV_ENCODING=latin1
//	FISH_LOGGING_LEVEL=debug
//
// # Validation
//
// Load validates the merged configuration with struct tags. Every
// failing field is reported in a single CONFIG error using the YAML key
// names, for example "end_year: must be >= start_year".
//
// # Path Management
//
// Relative data_dir, output_dir and logging.file_path values are
// resolved against the directory of the configuration file. Paths gives
// every output file of a run its well-known location:
//
//	paths := cfg.Paths()
//	paths.LongCSV("capture.csv")   // output/long_capture.csv
//	paths.PlotFile("FCY", "png")   // output/trend_FCY.png
package config
