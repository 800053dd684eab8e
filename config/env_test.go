package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFiles(t *testing.T, jsonBody, envBody string) {
	t.Helper()
	_ = Load()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonBody), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte(envBody), 0o644))
	require.NoError(t, loadFromFiles(jsonPath, envPath))

	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})
}

func TestLayering(t *testing.T) {
	withFiles(t,
		`{"app_port": "9000", "rate_limit": 50, "store_driver": "mongo"}`,
		"APP_PORT=9100\n# comment\nJWT_SECRET=\"from-dotenv\"\n",
	)

	assert.Equal(t, "9100", AppPort(), ".env wins over app.json")
	assert.Equal(t, 50, RateLimit())
	assert.Equal(t, "mongo", StoreDriver())
	assert.Equal(t, "from-dotenv", JWTSecret())

	t.Setenv("APP_PORT", "9200")
	assert.Equal(t, "9200", AppPort(), "process env wins over files")
}

func TestMissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, loadFromFiles(filepath.Join(dir, "nope.json"), filepath.Join(dir, ".nope")))
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	assert.Equal(t, "sql", StoreDriver())
	assert.Equal(t, "sqlite", DatabaseDriver())
	assert.Equal(t, 5*time.Hour, TokenTTL())
	assert.Equal(t, 30*time.Second, TrackingCacheTTL())
}

func TestInvalidValuesFallBack(t *testing.T) {
	withFiles(t, `{}`, "STORE_DRIVER=cassandra\nTOKEN_TTL=soon\nMAX_UPLOAD_BYTES=-3\n")

	assert.Equal(t, "sql", StoreDriver())
	assert.Equal(t, 5*time.Hour, TokenTTL())
	assert.Equal(t, int64(10<<20), MaxUploadBytes())
}

func TestDatabaseDSNPerDriver(t *testing.T) {
	withFiles(t, `{}`, "DB_DRIVER=postgres\n")
	assert.Contains(t, DatabaseDSN(), "dbname=kiraana")

	Set("DATABASE_DSN", "host=db")
	assert.Equal(t, "host=db", DatabaseDSN())
}

func TestCORSOrigins(t *testing.T) {
	withFiles(t, `{}`, "CORS_ORIGINS=https://a.example, https://b.example,\n")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, CORSOrigins())
}
