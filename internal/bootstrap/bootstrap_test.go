package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/internal/application/services"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
)

func clinicBackend(t *testing.T) *httptest.Server {
	t.Helper()
	responses := map[string]string{
		"/patients/id/p1":           `{"_id":"p1","patientCode":"P001","name":"Jane Doe"}`,
		"/patients/code/P001":       `{"data":{"_id":"p1","patientCode":"P001","name":"Jane Doe"}}`,
		"/labtests/patient/p1":      `[{"_id":"t1","testName":"CBC","date":"05/03/2026"}]`,
		"/testresults/patient/P001": `{"data":[{"_id":"r1","status":"Final"}]}`,
		"/appointments/patient/p1":  `[]`,
		"/labhistory/patient/p1":    "",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		switch {
		case !ok:
			http.NotFound(w, r)
		case body == "":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Clinic: config.ClinicConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		Resolution: config.ResolutionConfig{
			ExactTimeout:  time.Second,
			LooseTimeout:  time.Second,
			ScanTimeout:   time.Second,
			SourceTimeout: time.Second,
		},
		Dates:     config.DatesConfig{Order: "DMY", Location: "UTC"},
		HintCache: config.HintCacheConfig{Backend: config.HintBackendMemory},
	}
}

func TestNew_EndToEndLookup(t *testing.T) {
	server := clinicBackend(t)
	ctx := context.Background()

	app, err := New(ctx, testConfig(server.URL), nil)
	require.NoError(t, err)
	defer app.Close()

	lookup, err := app.Records.Lookup(ctx, entities.EntityReference{Kind: entities.KindPatient, Code: "p001"})
	require.NoError(t, err)

	require.True(t, lookup.Resolution.Found())
	assert.Equal(t, entities.MatchExactCode, *lookup.Resolution.StrategyUsed)
	assert.Equal(t, services.TierPrimary, lookup.Tier)
	assert.Equal(t, []string{"lab-history"}, lookup.View.FailedSources)
	require.Len(t, lookup.View.Records, 2)
	assert.Equal(t, "lab-test", lookup.View.Records[0].Source)
	assert.Equal(t, "test-result", lookup.View.Records[1].Source)

	// exact-code success leaves a hint behind
	id, ok := app.Hints.Get(ctx, "patient:code:P001")
	assert.True(t, ok)
	assert.Equal(t, "p1", id)

	again, err := app.Records.Resolve(ctx, entities.EntityReference{Kind: entities.KindPatient, Code: "P001"})
	require.NoError(t, err)
	assert.True(t, again.FromHint)
}

func TestNew_RejectsBadCatalog(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Clinic.CatalogPath = "/does/not/exist.yaml"

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestClose_IsIdempotent(t *testing.T) {
	app, err := New(context.Background(), testConfig("http://localhost:1"), nil)
	require.NoError(t, err)

	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}
