package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Search.MaxRows)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.Search.RequestTimeout)
	assert.Equal(t, int64(1), cfg.Generator.Slots)
	assert.Equal(t, "auto", cfg.Generator.Backend)
	assert.InDelta(t, 0.1, cfg.OpenAI.ChatTemperature, 1e-9)
	assert.False(t, cfg.Search.ExposeSQL)
	assert.False(t, cfg.OpenAI.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "last", cfg.Analyzer.RoomPolicy)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SEARCH_MAX_ROWS", "25")
	t.Setenv("SEARCH_REQUEST_TIMEOUT", "45s")
	t.Setenv("SEARCH_EXPOSE_SQL", "true")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("ACCELERATOR_COUNT", "2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_NAME", "listings")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Search.MaxRows)
	assert.Equal(t, 45*time.Second, cfg.Search.RequestTimeout)
	assert.True(t, cfg.Search.ExposeSQL)
	assert.Equal(t, 5*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, int64(2), cfg.Generator.Slots)
	assert.True(t, cfg.OpenAI.Enabled())
	assert.Equal(t, "listings", cfg.PostgreSQL.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"zero rows":          {"SEARCH_MAX_ROWS": "0"},
		"no slots":           {"GENERATOR_SLOTS": "0"},
		"negative timeout":   {"GENERATION_TIMEOUT": "-1s"},
		"unknown backend":    {"GENERATOR_BACKEND": "magic"},
		"openai without key": {"GENERATOR_BACKEND": "openai"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.GetPostgreSQLDSN())
}
