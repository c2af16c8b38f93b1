package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.googleapis.com/customsearch/v1", cfg.Search.BaseURL)
	assert.Equal(t, "sustainability report pdf", cfg.Search.QueryTemplate)
	assert.Equal(t, 5, cfg.Search.NumResults)
	assert.Equal(t, 0, cfg.Search.TimeoutSecs)
	assert.False(t, cfg.Search.CaseInsensitivePDF)
	assert.Equal(t, "data/reports", cfg.Download.DataDir)
	assert.Contains(t, cfg.Download.UserAgent, "Mozilla/5.0")
	assert.Equal(t, 30, cfg.Download.TimeoutSecs)
	assert.True(t, cfg.Download.InsecureSkipVerify)
	assert.Equal(t, 1, cfg.Download.MaxAttempts)
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "searchresult/report_urls.csv", cfg.Store.LoadPath)
	assert.Equal(t, "searchresult/report_urls.csv", cfg.Store.SavePath)
	assert.False(t, cfg.Store.Dedup)
	assert.Equal(t, 60, cfg.Browser.TimeoutSecs)
	assert.Equal(t, 80, cfg.Match.Threshold)
	assert.Equal(t, 1, cfg.Match.Limit)
	assert.Equal(t, "local", cfg.OCR.Provider)
	assert.Equal(t, "mistral-ocr-latest", cfg.OCR.MistralModel)
	assert.Equal(t, 2, cfg.OCR.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
search:
  query_template: "annual report"
  num_results: 10
  year: 2023
store:
  driver: sqlite
  database_url: reports.db
  dedup: true
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "annual report", cfg.Search.QueryTemplate)
	assert.Equal(t, 10, cfg.Search.NumResults)
	assert.Equal(t, 2023, cfg.Search.Year)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "reports.db", cfg.Store.DatabaseURL)
	assert.True(t, cfg.Store.Dedup)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 30, cfg.Download.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: csv
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("REPORTS_LOG_LEVEL", "warn")
	t.Setenv("REPORTS_SEARCH_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-key", cfg.Search.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPORTS_SEARCH_CSE_ID=cx-from-dotenv\n"), 0644))
	// godotenv does not override variables that are already set; make sure
	// the variable is restored after the test.
	t.Setenv("REPORTS_SEARCH_CSE_ID", "")
	require.NoError(t, os.Unsetenv("REPORTS_SEARCH_CSE_ID"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cx-from-dotenv", cfg.Search.CSEID)
}

func TestLoadInvalidStructure(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("REPORTS_STORE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: validate")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Search.BaseURL = "https://www.googleapis.com/customsearch/v1"
	cfg.Search.QueryTemplate = "sustainability report pdf"
	cfg.Search.NumResults = 5
	cfg.Download.DataDir = "data/reports"
	cfg.Download.UserAgent = "Mozilla/5.0"
	cfg.Download.MaxAttempts = 1
	cfg.Store.Driver = "csv"
	cfg.Store.SavePath = "out.csv"
	cfg.Browser.TimeoutSecs = 60
	cfg.Match.Threshold = 80
	cfg.OCR.Provider = "local"
	cfg.OCR.MistralURL = "https://api.mistral.ai/v1"
	cfg.OCR.Concurrency = 1
	cfg.Log.Format = "json"
	return cfg
}

func TestValidateStructure_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().ValidateStructure())
}

func TestValidateStructure_Ranges(t *testing.T) {
	cfg := validDefaults()
	cfg.Match.Threshold = 101
	err := cfg.ValidateStructure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Threshold")

	cfg = validDefaults()
	cfg.Search.NumResults = 11
	err = cfg.ValidateStructure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NumResults")
}

func TestValidateDiscover_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.APIKey = "key"
	cfg.Search.CSEID = "cx"

	assert.NoError(t, cfg.Validate("discover"))
}

func TestValidateDiscover_MissingCredentials(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.api_key is required")
	assert.Contains(t, err.Error(), "search.cse_id is required")
}

func TestValidateStats_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for the postgres driver")

	cfg.Store.DatabaseURL = "postgres://localhost/reports"
	assert.NoError(t, cfg.Validate("stats"))
}

func TestValidateOCR_MistralNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "mistral"

	err := cfg.Validate("ocr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.mistral_key is required")

	cfg.OCR.MistralKey = "mk"
	assert.NoError(t, cfg.Validate("ocr"))
}

func TestValidateNoRequirements(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"download", "render", "match"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
