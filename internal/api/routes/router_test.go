package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/backend/internal/api/routes"
	"github.com/zatekoja/clinicdesk/backend/internal/application/services"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
)

type stubRecords struct{}

func (stubRecords) Resolve(_ context.Context, ref entities.EntityReference) (*entities.ResolutionOutcome, error) {
	return &entities.ResolutionOutcome{Reference: ref, Attempted: []entities.MatchKind{}}, nil
}

func (stubRecords) Lookup(ctx context.Context, ref entities.EntityReference) (*services.RecordsLookup, error) {
	outcome, _ := stubRecords{}.Resolve(ctx, ref)
	return &services.RecordsLookup{
		Resolution: outcome,
		View:       &entities.AggregatedView{Records: []entities.SourceRecord{}},
		Tier:       services.TierNone,
	}, nil
}

func newServer() http.Handler {
	handler := handlers.NewResolutionHandler(stubRecords{}, nil, services.NewGenerations())
	return routes.NewRouter(handler, stubRecords{}, []string{"*"}, nil).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newServer().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_Routes(t *testing.T) {
	server := newServer()

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/api/resolve?kind=patient&id=p1", http.StatusOK},
		{http.MethodGet, "/api/records?kind=doctor&name=Robert%20Chen", http.StatusOK},
		{http.MethodGet, "/api/appointments?kind=patient&id=p1", http.StatusNotImplemented},
		{http.MethodPost, "/api/resolve?kind=patient&id=p1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			require.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
