package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const configFile = "tinyhttp.json"

type ServerConfig struct {
	Addr           string `json:"addr"`
	ReadBufferSize int    `json:"read_buffer_size"`
	AdminAddr      string `json:"admin_addr"`
	JokesFile      string `json:"jokes_file"`
	HotReload      bool   `json:"hot_reload"`
	LogFormat      string `json:"log_format"`
	LogLevel       string `json:"log_level"`
}

// defaultConfig returns sane defaults when tinyhttp.json
// is missing or invalid.
func defaultConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           "0.0.0.0:8080",
		ReadBufferSize: 8192,
		AdminAddr:      "127.0.0.1:8081",
		JokesFile:      "",
		HotReload:      false,
		LogFormat:      "json",
		LogLevel:       "info",
	}
}

// loadConfig tries to read tinyhttp.json from projectRoot;
// falls back to defaults on any error. Fix-ups are logged to log.
func loadConfig(projectRoot string, log zerolog.Logger) *ServerConfig {
	cfgPath := filepath.Join(projectRoot, configFile)
	log = log.With().Str("component", "config").Logger()

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		log.Info().Err(err).Str("path", cfgPath).Msg("no config file found, using defaults")
		return applyEnv(defaultConfig())
	}

	// admin_addr may be set to "" on purpose, so start from the defaults
	// instead of the zero value
	cfg := defaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("invalid config file, using defaults")
		return applyEnv(defaultConfig())
	}

	def := defaultConfig()

	if cfg.Addr == "" {
		log.Warn().Str("default", def.Addr).Msg("addr is empty, falling back to default")
		cfg.Addr = def.Addr
	}

	if cfg.ReadBufferSize <= 0 {
		log.Warn().Int("read_buffer_size", cfg.ReadBufferSize).Int("default", def.ReadBufferSize).
			Msg("read_buffer_size is invalid, falling back to default")
		cfg.ReadBufferSize = def.ReadBufferSize
	}

	if cfg.JokesFile != "" && !filepath.IsAbs(cfg.JokesFile) {
		cfg.JokesFile = filepath.Join(projectRoot, cfg.JokesFile)
	}

	if cfg.HotReload && cfg.JokesFile == "" {
		log.Warn().Msg("hot_reload is set but jokes_file is empty, nothing to watch")
		cfg.HotReload = false
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		log.Warn().Str("log_format", cfg.LogFormat).Str("default", def.LogFormat).
			Msg("log_format is invalid, falling back to default")
		cfg.LogFormat = def.LogFormat
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		log.Warn().Str("log_level", cfg.LogLevel).Str("default", def.LogLevel).
			Msg("log_level is invalid, falling back to default")
		cfg.LogLevel = def.LogLevel
	}

	return applyEnv(cfg)
}

// applyEnv lets APP_SERVER_ADDR override the listen address.
func applyEnv(cfg *ServerConfig) *ServerConfig {
	if addr := os.Getenv("APP_SERVER_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	return cfg
}

// getProjectRoot returns the nearest directory containing go.mod,
// or the working directory when there is none.
func getProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

func newLogger(cfg *ServerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
