package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATE_ORDER", "HINT_CACHE_BACKEND", "RESOLVE_EXACT_TIMEOUT", "CLINIC_API_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.Clinic.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Resolution.ExactTimeout)
	assert.Equal(t, 7*time.Second, cfg.Resolution.SourceTimeout)
	assert.Equal(t, HintBackendMemory, cfg.HintCache.Backend)
	assert.Equal(t, "DMY", cfg.Dates.Order)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RESOLVE_LOOSE_TIMEOUT", "1500ms")
	t.Setenv("SOURCE_TIMEOUT", "3")
	t.Setenv("DATE_ORDER", "mdy")
	t.Setenv("DATE_LOCATION", "UTC")
	t.Setenv("HINT_CACHE_BACKEND", "Redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Resolution.LooseTimeout)
	assert.Equal(t, 3*time.Second, cfg.Resolution.SourceTimeout)
	assert.Equal(t, HintBackendRedis, cfg.HintCache.Backend)

	parser, err := cfg.Dates.DateParser()
	require.NoError(t, err)
	assert.Equal(t, dates.MonthFirst, parser.Order())
	assert.Equal(t, time.UTC, parser.Location())
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "date order", key: "DATE_ORDER", val: "YMD"},
		{name: "cache backend", key: "HINT_CACHE_BACKEND", val: "memcached"},
		{name: "location", key: "DATE_LOCATION", val: "Mars/Olympus"},
		{name: "timeout", key: "RESOLVE_SCAN_TIMEOUT", val: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_EmbeddedDefault(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)

	patient, ok := cat.Kind("patient")
	require.True(t, ok)
	assert.Equal(t, "/patients", patient.Collection)
	assert.Equal(t, SearchQuery, patient.Search)
	require.Len(t, patient.Sources, 3)
	assert.Equal(t, "lab-history", patient.Sources[1].Name)
	assert.Equal(t, "Completed", patient.Sources[1].DefaultStatus)
	require.NotNil(t, patient.Bulk)

	doctor, ok := cat.Kind("doctor")
	require.True(t, ok)
	assert.Equal(t, SearchByName, doctor.Search)
}

func TestLoadCatalog_FileWithDurationsAndEnv(t *testing.T) {
	t.Setenv("CLINIC_LAB_PREFIX", "/lab")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kinds:
  patient:
    collection: /patients
    sources:
      - name: lab-test
        path: ${CLINIC_LAB_PREFIX}/patient/{id}
        timeout: 2s
`), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	src := cat.Kinds["patient"].Sources[0]
	assert.Equal(t, "/lab/patient/{id}", src.Path)
	assert.Equal(t, 2*time.Second, src.Timeout)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":            `kinds: {}`,
		"relative path":    "kinds:\n  patient:\n    collection: patients\n",
		"bad search":       "kinds:\n  patient:\n    collection: /p\n    search: fuzzy\n",
		"duplicate source": "kinds:\n  patient:\n    collection: /p\n    sources:\n      - {name: a, path: /a}\n      - {name: a, path: /b}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}
