package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Command line flags
// override anything set here.
type FileConfig struct {
	Workspace string       `yaml:"workspace"`
	Env       string       `yaml:"env"`
	Log       LogConfig    `yaml:"log"`
	Tools     ToolConfig   `yaml:"tools"`
	TauDEM    TauDEMConfig `yaml:"taudem"`
	Server    ServerConfig `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ToolConfig holds tool parameter defaults, in the linear unit of the data.
type ToolConfig struct {
	StationDistance  float64 `yaml:"station_distance"`
	SnapDistance     float64 `yaml:"snap_distance"`
	SearchRadius     float64 `yaml:"search_radius"`
	UnmatchedPolicy  string  `yaml:"unmatched_policy"`
	LoopTolerance    float64 `yaml:"loop_tolerance"`
	LoopSnapDistance float64 `yaml:"loop_snap_distance"`
	XSLoopRadius     float64 `yaml:"xs_loop_radius"`
	SmoothingPasses  int     `yaml:"smoothing_passes"`
	Workers          int     `yaml:"workers"`
}

type TauDEMConfig struct {
	MPIExec       string `yaml:"mpiexec"`
	GDALTranslate string `yaml:"gdal_translate"`
	Processes     int    `yaml:"processes"`
}

type ServerConfig struct {
	Port      int      `yaml:"port"`
	ApiKeys   []string `yaml:"api_keys"`
	RateLimit int      `yaml:"rate_limit"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() FileConfig {
	return FileConfig{
		Workspace: "workspace.fgdb",
		Env:       "development",
		Log:       LogConfig{Level: "info", Format: "text"},
		Tools: ToolConfig{
			StationDistance:  1,
			SnapDistance:     5,
			SearchRadius:     50,
			UnmatchedPolicy:  "null",
			LoopTolerance:    1,
			LoopSnapDistance: 50,
			XSLoopRadius:     5,
			Workers:          1,
		},
		TauDEM: TauDEMConfig{MPIExec: "mpiexec", GDALTranslate: "gdal_translate", Processes: 8},
		Server: ServerConfig{Port: 4000, RateLimit: 100},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (FileConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Tools.SmoothingPasses < 0 {
		return cfg, fmt.Errorf("smoothing_passes must be zero or more, got %d", cfg.Tools.SmoothingPasses)
	}
	return cfg, nil
}

// ParseLogLevel maps a level name onto a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
