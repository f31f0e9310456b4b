package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test and restores them after.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "") // registers restore
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, ":8000", cfg.Server.HTTPAddr)
	assert.Equal(t, "trendyol.com", cfg.Search.Site)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1.1, cfg.Face.ScaleFactor)
	assert.Equal(t, 4, cfg.Face.MinNeighbors)
	assert.Equal(t, 60, cfg.Face.MinSize)
	assert.Equal(t, 2, cfg.Scraper.MaxPerBrand)
	assert.True(t, cfg.Model.ApplySigmoid)
}

func TestLoad_RequiresSearchKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEARCH_API_KEY", "")
	t.Setenv("SEARCH_ENGINE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEARCH_API_KEY", "key")
	t.Setenv("SEARCH_ENGINE_ID", "cx")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("SCRAPER_CONCURRENCY", "8")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.Search.APIKey)
	assert.Equal(t, "cx", cfg.Search.EngineID)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Scraper.Concurrency)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_KeysEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.env"),
		[]byte("SEARCH_API_KEY=file-key\nSEARCH_ENGINE_ID=file-cx\n"), 0o600))
	// godotenv does not override variables that are already set
	unsetEnv(t, "SEARCH_API_KEY", "SEARCH_ENGINE_ID")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Search.APIKey)
	assert.Equal(t, "file-cx", cfg.Search.EngineID)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yml := `
search:
  api_key: yaml-key
  engine_id: yaml-cx
scraper:
  max_per_brand: 3
cache:
  ttl: 10m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o600))
	unsetEnv(t, "SEARCH_ENGINE_ID")
	t.Setenv("SEARCH_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Search.APIKey, "env wins over file")
	assert.Equal(t, 3, cfg.Scraper.MaxPerBrand)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestValidate_Logging(t *testing.T) {
	cfg := defaultConfig()
	cfg.Search.APIKey = "k"
	cfg.Search.EngineID = "cx"
	require.NoError(t, cfg.Validate())

	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "search.api_key", envTransform("SEARCH_API_KEY"))
	assert.Equal(t, "model.runtime_lib", envTransform("ONNXRUNTIME_LIB"))
	assert.Empty(t, envTransform("PATH"))
}
