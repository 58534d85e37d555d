package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPrompt   = "tsh> "
	DefaultMaxJobs  = 16
	DefaultMaxLine  = 1024
	historyFileName = ".tsh_history"
)

type Config struct {
	Prompt             string `yaml:"prompt"`
	EmitPrompt         bool   `yaml:"emit_prompt"`
	Verbose            bool   `yaml:"verbose"`
	HistoryFile        string `yaml:"history_file"`
	HomeDir            string `yaml:"home_dir"`
	MaxJobs            int    `yaml:"max_jobs"`
	MaxLine            int    `yaml:"max_line"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	AccurateStopNotice bool   `yaml:"accurate_stop_notice"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Prompt:     DefaultPrompt,
		EmitPrompt: true,
		MaxJobs:    DefaultMaxJobs,
		MaxLine:    DefaultMaxLine,
		LogLevel:   "warn",
		LogFormat:  "text",
	}
}

// Load reads the YAML file, then applies TSH_* overrides from the process
// environment and from envFile. Missing files are not an error.
func Load(file, envFile string) (*Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", file, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	applyEnv(cfg)

	if cfg.HomeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.HomeDir = home
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(cfg.HomeDir, historyFileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxJobs < 1 {
		return fmt.Errorf("max_jobs must be at least 1, got %d", c.MaxJobs)
	}
	if c.MaxLine < 1 {
		return fmt.Errorf("max_line must be at least 1, got %d", c.MaxLine)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("TSH_PROMPT"); ok {
		cfg.Prompt = v
	}
	cfg.Verbose = getEnvAsBool("TSH_VERBOSE", cfg.Verbose)
	cfg.HistoryFile = getEnv("TSH_HISTORY_FILE", cfg.HistoryFile)
	cfg.MaxJobs = getEnvAsInt("TSH_MAX_JOBS", cfg.MaxJobs)
	cfg.MaxLine = getEnvAsInt("TSH_MAX_LINE", cfg.MaxLine)
	cfg.AccurateStopNotice = getEnvAsBool("TSH_ACCURATE_STOP_NOTICE", cfg.AccurateStopNotice)
	cfg.LogLevel = getEnv("TSH_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("TSH_LOG_FORMAT", cfg.LogFormat)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
