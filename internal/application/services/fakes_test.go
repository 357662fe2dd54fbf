package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
)

// probeRecorder records which strategies ran and asserts they never overlap
type probeRecorder struct {
	mu        sync.Mutex
	calls     []entities.MatchKind
	inFlight  int
	maxFlight int
}

func (r *probeRecorder) strategy(kind entities.MatchKind, timeout time.Duration, fn providers.ProbeFunc) providers.ResolutionStrategy {
	return providers.ResolutionStrategy{
		Kind:    kind,
		Timeout: timeout,
		Probe: func(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
			r.mu.Lock()
			r.calls = append(r.calls, kind)
			r.inFlight++
			if r.inFlight > r.maxFlight {
				r.maxFlight = r.inFlight
			}
			r.mu.Unlock()

			defer func() {
				r.mu.Lock()
				r.inFlight--
				r.mu.Unlock()
			}()
			return fn(ctx, ref)
		},
	}
}

func (r *probeRecorder) called() []entities.MatchKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.MatchKind(nil), r.calls...)
}

func found(records ...entities.CanonicalRecord) providers.ProbeFunc {
	return func(context.Context, entities.EntityReference) ([]entities.CanonicalRecord, error) {
		return records, nil
	}
}

func failing(err error) providers.ProbeFunc {
	return func(context.Context, entities.EntityReference) ([]entities.CanonicalRecord, error) {
		return nil, err
	}
}

func blocking() providers.ProbeFunc {
	return func(ctx context.Context, _ entities.EntityReference) ([]entities.CanonicalRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

// fakeSource is a RecordSource with canned output
type fakeSource struct {
	name    string
	records []entities.SourceRecord
	err     error
	delay   time.Duration
	timeout time.Duration
	before  func()
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Timeout() time.Duration { return s.timeout }

func (s *fakeSource) Fetch(ctx context.Context, _ entities.CanonicalRecord) ([]entities.SourceRecord, error) {
	if s.before != nil {
		s.before()
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.records, s.err
}

// MockDirectory is a testify mock of providers.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Strategies(kind entities.EntityKind) []providers.ResolutionStrategy {
	args := m.Called(kind)
	if v := args.Get(0); v != nil {
		return v.([]providers.ResolutionStrategy)
	}
	return nil
}

func (m *MockDirectory) Sources(kind entities.EntityKind) []providers.RecordSource {
	args := m.Called(kind)
	if v := args.Get(0); v != nil {
		return v.([]providers.RecordSource)
	}
	return nil
}

func (m *MockDirectory) BulkCatalog(kind entities.EntityKind) providers.BulkCatalog {
	args := m.Called(kind)
	if v := args.Get(0); v != nil {
		return v.(providers.BulkCatalog)
	}
	return nil
}

func (m *MockDirectory) Appointments(kind entities.EntityKind) providers.AppointmentSource {
	args := m.Called(kind)
	if v := args.Get(0); v != nil {
		return v.(providers.AppointmentSource)
	}
	return nil
}

// MockBulkCatalog is a testify mock of providers.BulkCatalog
type MockBulkCatalog struct {
	mock.Mock
}

func (m *MockBulkCatalog) Scan(ctx context.Context, ref entities.EntityReference) ([]entities.SourceRecord, error) {
	args := m.Called(ctx, ref)
	if v := args.Get(0); v != nil {
		return v.([]entities.SourceRecord), args.Error(1)
	}
	return nil, args.Error(1)
}
