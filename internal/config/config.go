package config

import (
	"os"
	"strconv"
	"time"

	domain "welchpower/domain/power"
	"welchpower/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Solver     SolverConfig
	Server     ServerConfig
	Simulation SimulationConfig
	Sweep      SweepConfig
	LogLevel   string
}

// SolverConfig holds numeric search settings
type SolverConfig struct {
	Tolerance     float64
	MaxIterations int
	MaxSample     float64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// SimulationConfig holds Monte Carlo settings
type SimulationConfig struct {
	Replicates int
	Workers    int
	Seed       uint64
}

// SweepConfig holds power curve settings
type SweepConfig struct {
	Workers int
}

// Bounds converts the solver settings into engine bounds
func (s SolverConfig) Bounds() domain.SolverBounds {
	b := domain.DefaultSolverBounds()
	b.Tolerance = s.Tolerance
	b.MaxIterations = s.MaxIterations
	return b
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Solver:     *loadSolverConfig(),
		Server:     *loadServerConfig(),
		Simulation: *loadSimulationConfig(),
		Sweep:      *loadSweepConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSolverConfig() *SolverConfig {
	def := domain.DefaultSolverBounds()
	return &SolverConfig{
		Tolerance:     getEnvFloatOrDefault("POWER_TOLERANCE", def.Tolerance),
		MaxIterations: getEnvIntOrDefault("POWER_MAX_ITERATIONS", def.MaxIterations),
		MaxSample:     getEnvFloatOrDefault("POWER_MAX_SAMPLE", domain.DefaultMaxSample),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Replicates: getEnvIntOrDefault("SIM_REPLICATES", 2000),
		Workers:    getEnvIntOrDefault("SIM_WORKERS", 4),
		Seed:       uint64(getEnvIntOrDefault("SIM_SEED", 1)),
	}
}

func loadSweepConfig() *SweepConfig {
	return &SweepConfig{
		Workers: getEnvIntOrDefault("SWEEP_WORKERS", 8),
	}
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	if c.Solver.Tolerance <= 0 || c.Solver.Tolerance >= 1 {
		return errors.ConfigInvalid("POWER_TOLERANCE must be in (0, 1)")
	}
	if c.Solver.MaxIterations < 1 {
		return errors.ConfigInvalid("POWER_MAX_ITERATIONS must be at least 1")
	}
	if c.Solver.MaxSample < domain.MinSampleSize {
		return errors.ConfigInvalid("POWER_MAX_SAMPLE must be at least 10")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if c.Simulation.Replicates < 1 {
		return errors.ConfigInvalid("SIM_REPLICATES must be at least 1")
	}
	if c.Simulation.Workers < 1 || c.Sweep.Workers < 1 {
		return errors.ConfigInvalid("worker counts must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
