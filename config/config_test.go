package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, "neo4j", cfg.Graph.Username)
	assert.True(t, cfg.Categories.Active)
	assert.Equal(t, 1, cfg.Categories.Min)
	assert.Equal(t, 3, cfg.Categories.Max)
	assert.Equal(t, 100, cfg.Groups.DescriptionMinLength)
	assert.Equal(t, 0, cfg.Slugs.MaxProbes, "slug probing is unbounded by default")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("GRAPH_URI", "neo4j://db.internal:7687")
	t.Setenv("CATEGORIES_ACTIVE", "false")
	t.Setenv("CATEGORIES_MAX", "5")
	t.Setenv("SLUG_MAX_PROBES", "25")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "neo4j://db.internal:7687", cfg.Graph.URI)
	assert.False(t, cfg.Categories.Active)
	assert.Equal(t, 5, cfg.Categories.Max)
	assert.Equal(t, 25, cfg.Slugs.MaxProbes)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("ENV", "qa")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:        AppConfig{Environment: "development"},
			Logger:     LoggerConfig{Level: "info"},
			Graph:      GraphConfig{URI: "bolt://localhost:7687"},
			Categories: CategoriesConfig{Active: true, Min: 1, Max: 3},
			Groups:     GroupsConfig{DescriptionMinLength: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logger.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "missing graph uri",
			mutate:  func(c *Config) { c.Graph.URI = "" },
			wantErr: "GRAPH_URI is required",
		},
		{
			name:    "category bounds inverted",
			mutate:  func(c *Config) { c.Categories.Min = 4 },
			wantErr: "CATEGORIES_MAX",
		},
		{
			name:    "negative probe budget",
			mutate:  func(c *Config) { c.Slugs.MaxProbes = -1 },
			wantErr: "SLUG_MAX_PROBES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("FLAG_A", "yes")
	t.Setenv("FLAG_B", "0")

	assert.True(t, getBoolEnv("FLAG_A", false))
	assert.False(t, getBoolEnv("FLAG_B", true))
	assert.True(t, getBoolEnv("FLAG_UNSET", true))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("NUM_A", "42")
	t.Setenv("NUM_B", "not-a-number")

	assert.Equal(t, 42, getIntEnv("NUM_A", 1))
	assert.Equal(t, 7, getIntEnv("NUM_B", 7), "unparsable values fall back to the default")
	assert.Equal(t, 9, getIntEnv("NUM_UNSET", 9))
}
