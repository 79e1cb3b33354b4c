// Package config provides configuration for the groupmesh core from environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Config holds the core configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Graph      GraphConfig
	Categories CategoriesConfig
	Groups     GroupsConfig
	Slugs      SlugConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// GraphConfig holds graph store connection configuration.
// The values are handed to the bolt driver adapter unchanged.
type GraphConfig struct {
	URI      string // e.g. bolt://localhost:7687 or neo4j://cluster:7687
	Username string
	Password string
	Database string // empty selects the server default database
}

// CategoriesConfig holds category-association enforcement shared by group and
// post writes.
type CategoriesConfig struct {
	// Active toggles category-count enforcement.
	Active bool
	// Min and Max bound the number of category associations when enforcement
	// is active.
	Min int
	Max int
}

// GroupsConfig holds group validation configuration.
type GroupsConfig struct {
	// DescriptionMinLength is the minimum description length in characters after
	// markup has been stripped.
	DescriptionMinLength int
}

// SlugConfig holds slug allocation configuration.
type SlugConfig struct {
	// MaxProbes caps the suffix search of the slug allocator. Zero means the
	// search is unbounded, which matches the original behavior.
	MaxProbes int
}

// Load reads configuration with precedence:
// 1. Environment variables (highest priority).
// 2. .env file in the working directory.
// 3. Default values (lowest priority).
func Load() (*Config, error) {
	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(".env")

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Graph: GraphConfig{
			URI:      getEnv("GRAPH_URI", "bolt://localhost:7687"),
			Username: getEnv("GRAPH_USERNAME", "neo4j"),
			Password: getEnv("GRAPH_PASSWORD", ""),
			Database: getEnv("GRAPH_DATABASE", ""),
		},
		Categories: CategoriesConfig{
			Active: getBoolEnv("CATEGORIES_ACTIVE", true),
			Min:    getIntEnv("CATEGORIES_MIN", 1),
			Max:    getIntEnv("CATEGORIES_MAX", 3),
		},
		Groups: GroupsConfig{
			DescriptionMinLength: getIntEnv("DESCRIPTION_MIN_LENGTH", 100),
		},
		Slugs: SlugConfig{
			MaxProbes: getIntEnv("SLUG_MAX_PROBES", 0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and consistent.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Graph.URI == "" {
		return errors.New("GRAPH_URI is required")
	}

	if c.Categories.Min < 0 {
		return errors.New("CATEGORIES_MIN must not be negative")
	}
	if c.Categories.Max < c.Categories.Min {
		return fmt.Errorf("CATEGORIES_MAX (%d) must not be below CATEGORIES_MIN (%d)",
			c.Categories.Max, c.Categories.Min)
	}
	if c.Groups.DescriptionMinLength < 0 {
		return errors.New("DESCRIPTION_MIN_LENGTH must not be negative")
	}

	if c.Slugs.MaxProbes < 0 {
		return errors.New("SLUG_MAX_PROBES must not be negative")
	}

	return nil
}

// getEnv returns the environment value for key, or defaultValue if unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads KEY=value pairs from path into the process environment.
// Existing environment variables take precedence over .env entries.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
