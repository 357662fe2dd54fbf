package services

import (
	"context"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
)

// LookupTier names which step of the records lookup produced the view
type LookupTier string

const (
	TierPrimary   LookupTier = "primary"
	TierSecondary LookupTier = "secondary"
	TierBulk      LookupTier = "bulk"
	TierNone      LookupTier = "none"
)

// bulkSourceName tags the bulk fallback in FailedSources
const bulkSourceName = "bulk-catalog"

// RecordsLookup is the result of a full records lookup
type RecordsLookup struct {
	Resolution *entities.ResolutionOutcome `json:"resolution"`
	View       *entities.AggregatedView    `json:"view"`
	Tier       LookupTier                  `json:"tier"`
}

// RecordsService resolves references through a Directory and gathers their records
type RecordsService struct {
	directory   providers.Directory
	resolver    *ResolverService
	aggregator  *AggregatorService
	scanTimeout time.Duration
}

// NewRecordsService wires the resolver and aggregator to directory
func NewRecordsService(directory providers.Directory, resolver *ResolverService, aggregator *AggregatorService, scanTimeout time.Duration) *RecordsService {
	return &RecordsService{
		directory:   directory,
		resolver:    resolver,
		aggregator:  aggregator,
		scanTimeout: scanTimeout,
	}
}

// Resolve resolves ref with the strategies configured for its kind
func (s *RecordsService) Resolve(ctx context.Context, ref entities.EntityReference) (*entities.ResolutionOutcome, error) {
	return s.resolver.Resolve(ctx, ref, s.directory.Strategies(ref.Kind))
}

// Lookup resolves ref and aggregates its records in up to three tiers: the
// reference as given, the reference without its id when the first pass
// produced no records, and a low-confidence bulk filter when nothing could
// be resolved at all.
func (s *RecordsService) Lookup(ctx context.Context, ref entities.EntityReference) (*RecordsLookup, error) {
	outcome, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	ref = outcome.Reference

	lookup := &RecordsLookup{
		Resolution: outcome,
		View:       &entities.AggregatedView{Records: []entities.SourceRecord{}, Confidence: entities.ConfidenceHigh},
		Tier:       TierNone,
	}
	resolved := outcome.Found()

	if resolved {
		lookup.View = s.aggregator.Aggregate(ctx, *outcome.Record, s.directory.Sources(ref.Kind))
		lookup.Tier = TierPrimary
		if !lookup.View.Empty() {
			return lookup, nil
		}
	}

	if ref.ID != "" && ref.HasSecondary() {
		// Hints written by the primary pass point back at the id that just
		// came up empty, so the secondary pass asks the backend directly.
		secondary, err := s.resolver.ResolveUncached(ctx, ref.WithoutID(), s.directory.Strategies(ref.Kind))
		if err != nil {
			return nil, err
		}
		if secondary.Found() && (!resolved || secondary.Record.ID != outcome.Record.ID) {
			secondaryView := s.aggregator.Aggregate(ctx, *secondary.Record, s.directory.Sources(ref.Kind))
			if !secondaryView.Empty() || !resolved {
				lookup.Resolution, lookup.View, lookup.Tier = secondary, secondaryView, TierSecondary
			}
		}
		resolved = resolved || secondary.Found()
		if !lookup.View.Empty() {
			return lookup, nil
		}
	}

	if resolved {
		return lookup, nil
	}

	bulk := s.directory.BulkCatalog(ref.Kind)
	if bulk == nil {
		return lookup, nil
	}

	records, err := callBounded(ctx, s.scanTimeout, func(ctx context.Context) ([]entities.SourceRecord, error) {
		return bulk.Scan(ctx, ref)
	})
	bulkView := &entities.AggregatedView{
		Records:    entities.MergeSourceRecords(records),
		Confidence: entities.ConfidenceLow,
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("kind", string(ref.Kind)).Msg("bulk catalog scan failed")
		observability.RecordSourceFailure(ctx, s.aggregator.metrics, bulkSourceName)
		bulkView.FailedSources = []string{bulkSourceName}
	}
	lookup.View, lookup.Tier = bulkView, TierBulk
	return lookup, nil
}
