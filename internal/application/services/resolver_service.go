package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/observability"
	"github.com/zatekoja/clinicdesk/backend/pkg/utils"
)

// ResolverService turns partial references into canonical records by trying
// strategies one at a time, cheapest and most precise first.
type ResolverService struct {
	hints   *HintCache
	metrics *observability.Metrics
	newID   func() string
}

// NewResolverService creates a resolver. hints may be nil.
func NewResolverService(hints *HintCache, metrics *observability.Metrics) *ResolverService {
	return &ResolverService{
		hints:   hints,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Resolve runs strategies in order and stops at the first one returning
// candidates. Probe failures are recorded in the outcome's Attempted trail;
// the returned error is reserved for invalid references.
func (s *ResolverService) Resolve(ctx context.Context, ref entities.EntityReference, strategies []providers.ResolutionStrategy) (*entities.ResolutionOutcome, error) {
	return s.resolve(ctx, ref, strategies, true)
}

// ResolveUncached is Resolve without consulting stored hints. Exact matches
// still refresh the cache.
func (s *ResolverService) ResolveUncached(ctx context.Context, ref entities.EntityReference, strategies []providers.ResolutionStrategy) (*entities.ResolutionOutcome, error) {
	return s.resolve(ctx, ref, strategies, false)
}

func (s *ResolverService) resolve(ctx context.Context, ref entities.EntityReference, strategies []providers.ResolutionStrategy, useHints bool) (*entities.ResolutionOutcome, error) {
	ref = trimReference(ref)
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	outcome := &entities.ResolutionOutcome{
		RequestID: s.newID(),
		Reference: ref,
		Attempted: []entities.MatchKind{},
	}

	ctx, span := observability.StartSpan(ctx, "resolver.Resolve",
		attribute.String("entity.kind", string(ref.Kind)),
		attribute.String("request.id", outcome.RequestID),
	)
	defer span.End()

	logger := observability.LoggerFromContext(ctx).With().
		Str("request_id", outcome.RequestID).
		Str("kind", string(ref.Kind)).
		Logger()

	if useHints && s.resolveFromHint(ctx, &logger, ref, strategies, outcome) {
		s.finish(ctx, &logger, outcome)
		return outcome, nil
	}

	for _, strategy := range strategies {
		if !strategy.Applicable(ref) {
			continue
		}
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("resolution abandoned by caller")
			break
		}

		outcome.Attempted = append(outcome.Attempted, strategy.Kind)
		records, err := s.probe(ctx, strategy, ref)
		if err != nil {
			logger.Warn().Err(err).Str("strategy", string(strategy.Kind)).Msg("resolution strategy failed")
			observability.RecordStrategyFailure(ctx, s.metrics, string(strategy.Kind))
			continue
		}
		if len(records) == 0 {
			logger.Debug().Str("strategy", string(strategy.Kind)).Msg("resolution strategy found nothing")
			continue
		}

		record, _ := utils.PickCandidate(records, ref.Code, ref.Name, func(r entities.CanonicalRecord) (string, string) {
			return r.Code, r.Name
		})
		kind := strategy.Kind
		outcome.Record = &record
		outcome.StrategyUsed = &kind

		if kind == entities.MatchExactID || kind == entities.MatchExactCode {
			for _, key := range confirmedHintKeys(ref, record) {
				s.hints.Set(ctx, key, record.ID)
			}
		}
		break
	}

	s.finish(ctx, &logger, outcome)
	return outcome, nil
}

// resolveFromHint verifies cached hints through the exact-id probe. A hint
// the backend confirms missing, or that now points at a different entity, is
// evicted; a hint that could not be checked is kept.
func (s *ResolverService) resolveFromHint(ctx context.Context, logger *zerolog.Logger, ref entities.EntityReference, strategies []providers.ResolutionStrategy, outcome *entities.ResolutionOutcome) bool {
	if ref.ID != "" || s.hints == nil {
		return false
	}
	exact, ok := findStrategy(strategies, entities.MatchExactID)
	if !ok {
		return false
	}

	for _, key := range ref.HintKeys() {
		id, ok := s.hints.Get(ctx, key)
		if !ok {
			continue
		}

		outcome.Attempted = append(outcome.Attempted, entities.MatchCachedHint)
		records, err := s.probe(ctx, exact, ref.WithID(id))
		if err != nil {
			logger.Warn().Err(err).Str("hint_key", key).Msg("hint verification failed")
			continue
		}
		if len(records) == 0 || !hintStillMatches(ref, records[0]) {
			logger.Info().Str("hint_key", key).Str("hinted_id", id).Msg("evicting stale hint")
			s.hints.Evict(ctx, key)
			continue
		}

		record := records[0]
		used := entities.MatchExactID
		outcome.Record = &record
		outcome.StrategyUsed = &used
		outcome.FromHint = true
		return true
	}
	return false
}

func (s *ResolverService) probe(ctx context.Context, strategy providers.ResolutionStrategy, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
	ctx, span := observability.StartSpan(ctx, "resolver.strategy."+string(strategy.Kind))
	defer span.End()

	records, err := callBounded(ctx, strategy.Timeout, func(ctx context.Context) ([]entities.CanonicalRecord, error) {
		return strategy.Probe(ctx, ref)
	})
	observability.RecordError(span, err)
	span.SetAttributes(attribute.Int("candidates", len(records)))
	return records, err
}

func (s *ResolverService) finish(ctx context.Context, logger *zerolog.Logger, outcome *entities.ResolutionOutcome) {
	strategy := "none"
	if outcome.StrategyUsed != nil {
		strategy = string(*outcome.StrategyUsed)
	}
	observability.RecordResolution(ctx, s.metrics, string(outcome.Reference.Kind), strategy)

	event := logger.Info()
	if !outcome.Found() {
		event = logger.Warn()
	}
	event.Str("strategy", strategy).
		Bool("from_hint", outcome.FromHint).
		Interface("attempted", outcome.Attempted).
		Msg("resolution finished")
}

// hintStillMatches accepts a hinted record only when its own code or name
// agrees with the reference. A record carrying neither cannot confirm it.
func hintStillMatches(ref entities.EntityReference, record entities.CanonicalRecord) bool {
	return utils.CodeEquals(ref.Code, record.Code) || utils.LooseEquals(ref.Name, record.Name)
}

// confirmedHintKeys derives hint keys from the record's own code and name,
// keeping only those the reference also carries. An id lookup whose record
// disagrees with the reference's code caches nothing under that code.
func confirmedHintKeys(ref entities.EntityReference, record entities.CanonicalRecord) []string {
	confirmed := entities.EntityReference{Kind: ref.Kind}
	if utils.CodeEquals(ref.Code, record.Code) {
		confirmed.Code = record.Code
	}
	if name := utils.NormalizeName(record.Name); name != "" && name == utils.NormalizeName(ref.Name) {
		confirmed.Name = record.Name
	}
	return confirmed.HintKeys()
}

func findStrategy(strategies []providers.ResolutionStrategy, kind entities.MatchKind) (providers.ResolutionStrategy, bool) {
	for _, s := range strategies {
		if s.Kind == kind && s.Probe != nil {
			return s, true
		}
	}
	return providers.ResolutionStrategy{}, false
}

func trimReference(ref entities.EntityReference) entities.EntityReference {
	ref.ID = strings.TrimSpace(ref.ID)
	ref.Code = strings.TrimSpace(ref.Code)
	ref.Name = strings.TrimSpace(ref.Name)
	return ref
}
