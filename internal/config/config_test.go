package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfig_Defaults(t *testing.T) {
	require.NoError(t, LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "8080", DefaultEnvConfig.APP_PORT)
	assert.Equal(t, "xlsx", DefaultEnvConfig.REPORT_DEFAULT_FORMAT)
	assert.Equal(t, 30*time.Second, DefaultEnvConfig.EXPORT_TIMEOUT)
	assert.Equal(t, 5432, DefaultEnvConfig.DB_PORT)
	assert.False(t, DefaultEnvConfig.DB_ENABLED)
}

func TestLoadEnvConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "REPORT_DEFAULT_FORMAT=csv\nEXPORT_TIMEOUT=5\nDB_ENABLED=true\nFETCH_WORKERS=8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	for _, k := range []string{"REPORT_DEFAULT_FORMAT", "EXPORT_TIMEOUT", "DB_ENABLED", "FETCH_WORKERS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{"REPORT_DEFAULT_FORMAT", "EXPORT_TIMEOUT", "DB_ENABLED", "FETCH_WORKERS"} {
			os.Unsetenv(k)
		}
	})

	require.NoError(t, LoadEnvConfig(path))
	assert.Equal(t, "csv", DefaultEnvConfig.REPORT_DEFAULT_FORMAT)
	assert.Equal(t, 5*time.Second, DefaultEnvConfig.EXPORT_TIMEOUT)
	assert.True(t, DefaultEnvConfig.DB_ENABLED)
	assert.Equal(t, 8, DefaultEnvConfig.FETCH_WORKERS)
}

func TestGetters_Fallbacks(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "abc")
	t.Setenv("CFG_TEST_BOOL", "maybe")
	t.Setenv("CFG_TEST_DUR", "1m30s")

	assert.Equal(t, 7, getEnvInt("CFG_TEST_INT", 7))
	assert.True(t, getEnvBool("CFG_TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, getEnvDuration("CFG_TEST_DUR", time.Second))
	assert.Equal(t, "x", getEnvString("CFG_TEST_UNSET", "x"))
}
