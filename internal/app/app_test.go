package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "time/tzdata"

	"github.com/ignite/leadgen-crm/internal/analytics"
	"github.com/ignite/leadgen-crm/internal/cache"
	"github.com/ignite/leadgen-crm/internal/config"
)

func TestNewEngineFromConfig(t *testing.T) {
	cfg := config.Default().Analytics
	cfg.TopN = 3
	cfg.ServiceSuccessRates = map[string]float64{"hunter": 0.5}

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.TopN)
	assert.Equal(t, "America/New_York", engine.Location().String())
	assert.Equal(t, map[string]float64{"hunter": 0.5}, engine.SuccessRates)
}

func TestNewEngineKeepsDefaultRates(t *testing.T) {
	engine, err := NewEngine(config.Default().Analytics)
	require.NoError(t, err)
	assert.Equal(t, analytics.DefaultSuccessRates(), engine.SuccessRates)
}

func TestNewEngineBadTimezone(t *testing.T) {
	cfg := config.Default().Analytics
	cfg.Timezone = "Mars/Olympus"
	_, err := NewEngine(cfg)
	assert.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	a := &App{Config: config.Default()}
	opts := a.ServiceOptions(analytics.NewEngine(time.UTC))
	assert.Nil(t, opts.Cache, "no typed-nil cache when Redis is off")
	assert.Equal(t, 30*24*time.Hour, opts.DefaultWindow)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	a.Cache = cache.New(client, time.Minute)
	assert.NotNil(t, a.ServiceOptions(analytics.NewEngine(time.UTC)).Cache)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	dir := t.TempDir()
	t.Chdir(dir)

	assert.Equal(t, "", ConfigPath())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigPath), []byte("server:\n  port: 9000\n"), 0o644))
	assert.Equal(t, DefaultConfigPath, ConfigPath())

	t.Setenv("CONFIG_PATH", "/etc/leadgen.yaml")
	assert.Equal(t, "/etc/leadgen.yaml", ConfigPath())
}

func TestOpenDBRequiresURL(t *testing.T) {
	_, err := OpenDB(t.Context(), config.DatabaseConfig{})
	assert.ErrorContains(t, err, "DATABASE_URL")
}
