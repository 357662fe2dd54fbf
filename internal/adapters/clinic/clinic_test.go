package clinic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
)

var testTimeouts = Timeouts{Exact: time.Second, Loose: time.Second, Scan: time.Second, Source: time.Second}

func newDirectory(t *testing.T, routes map[string]string) *Directory {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.EscapedPath()
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := routes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	catalog, err := config.LoadCatalog("")
	require.NoError(t, err)

	dir, err := NewDirectory(clinicapi.NewClient(server.URL, time.Second), catalog, testTimeouts, dates.NewParser(dates.DayFirst, time.UTC))
	require.NoError(t, err)
	return dir
}

func strategy(t *testing.T, dir *Directory, kind entities.EntityKind, match entities.MatchKind) func(context.Context, entities.EntityReference) ([]entities.CanonicalRecord, error) {
	t.Helper()
	for _, s := range dir.Strategies(kind) {
		if s.Kind == match {
			return s.Probe
		}
	}
	t.Fatalf("no %s strategy for %s", match, kind)
	return nil
}

func TestDirectory_StrategyOrder(t *testing.T) {
	dir := newDirectory(t, nil)

	var kinds []entities.MatchKind
	for _, s := range dir.Strategies(entities.KindDoctor) {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []entities.MatchKind{
		entities.MatchExactID, entities.MatchExactCode, entities.MatchLooseName, entities.MatchFullScan,
	}, kinds)

	assert.Len(t, dir.Sources(entities.KindPatient), 3)
	assert.NotNil(t, dir.BulkCatalog(entities.KindPatient))
	assert.Nil(t, dir.BulkCatalog(entities.KindAppointmentSubject))
}

func TestProbes_ExactID(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/patients/id/p1": `{"data":{"_id":"p1","patientCode":"P001","name":"Jane Doe"}}`,
	})
	probe := strategy(t, dir, entities.KindPatient, entities.MatchExactID)

	records, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, ID: "p1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "P001", records[0].Code)

	records, err = probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, ID: "gone"})
	assert.NoError(t, err, "404 is a confirmed not-found, not a failure")
	assert.Empty(t, records)
}

func TestProbes_ExactCodeNormalizesCode(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/patients/code/P002": `{"_id":"p2","code":"P002"}`,
	})
	probe := strategy(t, dir, entities.KindPatient, entities.MatchExactCode)

	records, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, Code: " p002"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p2", records[0].ID)
}

func TestProbes_LooseNameByName(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/doctors/by-name/robert%20chen?loose=1": `[{"_id":"d9","name":"Robert Chen Jr"},{"_id":"d1","name":"Dr. Robert Chen"},{"_id":"d2","name":"Amaka Obi"}]`,
	})
	probe := strategy(t, dir, entities.KindDoctor, entities.MatchLooseName)

	records, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindDoctor, Name: "Dr. Robert Chen"})
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"d9", "d1"}, ids, "substring matches are kept for the tie-break")
}

func TestProbes_LooseNameQuerySearch(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/patients/search?q=jane+doe": `{"data":[{"_id":"p1","firstName":"Jane","lastName":"Doe"}]}`,
	})
	probe := strategy(t, dir, entities.KindPatient, entities.MatchLooseName)

	records, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, Name: "jane  DOE"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane Doe", records[0].Name)
}

func TestProbes_FullScanFilters(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/patients/": `[{"_id":"p1","code":"P001"},{"_id":"p2","code":"P002"}]`,
	})
	probe := strategy(t, dir, entities.KindPatient, entities.MatchFullScan)

	records, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, Code: "p002"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p2", records[0].ID)
}

func TestProbes_ServerErrorIsFailure(t *testing.T) {
	dir := newDirectory(t, map[string]string{"/patients/": "500"})
	probe := strategy(t, dir, entities.KindPatient, entities.MatchFullScan)

	_, err := probe(context.Background(), entities.EntityReference{Kind: entities.KindPatient, Name: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestHTTPSource_NormalizesWithDefaults(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/labhistory/patient/p1": `{"data":[
			{"_id":"h1","testName":"CBC","doctor":{"name":"Dr. Robert Chen"},"date":"05/03/2026"},
			{"_id":"h2","status":"Cancelled","priority":"Urgent","testDate":"2026-02-01T09:30:00Z","fileUrl":"/files/h2.pdf"}
		]}`,
	})

	var history *HTTPSource
	for _, s := range dir.Sources(entities.KindPatient) {
		if s.Name() == "lab-history" {
			history = s.(*HTTPSource)
		}
	}
	require.NotNil(t, history)
	assert.Equal(t, time.Second, history.Timeout())

	records, err := history.Fetch(context.Background(), entities.CanonicalRecord{ID: "p1", Kind: entities.KindPatient})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, entities.SourceRecord{
		ID:        "h1",
		Source:    "lab-history",
		Type:      "CBC",
		Status:    "Completed",
		Priority:  "-",
		ActorName: "Dr. Robert Chen",
		Timestamp: dates.NewParser(dates.DayFirst, time.UTC).Parse("2026-03-05"),
	}, records[0])

	assert.Equal(t, "Lab Test", records[1].Type)
	assert.Equal(t, "Cancelled", records[1].Status)
	assert.Equal(t, "Urgent", records[1].Priority)
	assert.Equal(t, "/files/h2.pdf", records[1].AttachmentURL)
	assert.Equal(t, "2026-02-01", records[1].Timestamp.String())
}

func TestHTTPSource_MissingPlaceholderContributesNothing(t *testing.T) {
	dir := newDirectory(t, nil)

	var results *HTTPSource
	for _, s := range dir.Sources(entities.KindPatient) {
		if s.Name() == "test-result" {
			results = s.(*HTTPSource)
		}
	}
	require.NotNil(t, results)

	records, err := results.Fetch(context.Background(), entities.CanonicalRecord{ID: "p1", Kind: entities.KindPatient})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBulkScanner_FiltersByOwner(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/labtests": `[
			{"_id":"t1","patient":{"_id":"p1","name":"Jane Doe"}},
			{"_id":"t2","patientId":"p2"},
			{"_id":"t3","patientName":"Jane Doe-Smith"},
			{"_id":"t4","patient":"p3","patientCode":"P003"}
		]`,
	})
	bulk := dir.BulkCatalog(entities.KindPatient)

	records, err := bulk.Scan(context.Background(), entities.EntityReference{Kind: entities.KindPatient, Name: "jane doe", Code: "P003"})
	require.NoError(t, err)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
		assert.Equal(t, "lab-catalog", r.Source)
	}
	assert.Equal(t, []string{"t1", "t3", "t4"}, ids)
}

func TestAppointmentSource_Decodes(t *testing.T) {
	dir := newDirectory(t, map[string]string{
		"/appointments/doctor/d1": `[{"_id":"a1","patient":{"_id":"p1","name":"Jane Doe"},"doctorId":"d1","date":"2026-10-19"}]`,
	})

	appts, err := dir.Appointments(entities.KindDoctor).ListAppointments(context.Background(), entities.CanonicalRecord{ID: "d1", Kind: entities.KindDoctor})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "p1", appts[0].Patient.ID)
	assert.Equal(t, "d1", appts[0].Doctor.ID)
}

func TestExpandPath(t *testing.T) {
	path, ok := expandPath("/testresults/patient/{code}", entities.EntityReference{Code: "P 1"})
	assert.True(t, ok)
	assert.Equal(t, "/testresults/patient/P%201", path)

	_, ok = expandPath("/labtests/patient/{id}", entities.EntityReference{Code: "P1"})
	assert.False(t, ok)
}
