package clinic

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/domain/providers"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
	"github.com/zatekoja/clinicdesk/backend/pkg/utils"
)

// probes issues the resolution requests against one collection
type probes struct {
	client     clinicapi.Client
	kind       entities.EntityKind
	collection string
	search     string
}

func (p *probes) strategies(t Timeouts) []providers.ResolutionStrategy {
	list := []providers.ResolutionStrategy{
		{Kind: entities.MatchExactID, Probe: p.exactID, Timeout: t.Exact},
		{Kind: entities.MatchExactCode, Probe: p.exactCode, Timeout: t.Exact},
	}
	if p.search != config.SearchNone {
		list = append(list, providers.ResolutionStrategy{Kind: entities.MatchLooseName, Probe: p.looseName, Timeout: t.Loose})
	}
	return append(list, providers.ResolutionStrategy{Kind: entities.MatchFullScan, Probe: p.fullScan, Timeout: t.Scan})
}

func (p *probes) exactID(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
	return p.object(ctx, p.collection+"/id/"+url.PathEscape(ref.ID))
}

func (p *probes) exactCode(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
	return p.object(ctx, p.collection+"/code/"+url.PathEscape(utils.NormalizeCode(ref.Code)))
}

// looseName asks the backend's text search, then keeps only candidates whose
// display name loosely matches; backend search is broader than ours.
func (p *probes) looseName(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
	term := utils.NormalizeName(ref.Name)

	var (
		items []json.RawMessage
		err   error
	)
	switch p.search {
	case config.SearchByName:
		items, err = p.client.GetCollection(ctx, p.collection+"/by-name/"+url.PathEscape(term), url.Values{"loose": {"1"}})
	default:
		items, err = p.client.GetCollection(ctx, p.collection+"/search", url.Values{"q": {term}})
	}
	records, err := p.decode(items, err)
	if err != nil || len(records) == 0 {
		return records, err
	}

	return filterRecords(records, func(r entities.CanonicalRecord) bool {
		return utils.LooseEquals(ref.Name, r.Name)
	}), nil
}

// fullScan lists the whole collection and filters locally
func (p *probes) fullScan(ctx context.Context, ref entities.EntityReference) ([]entities.CanonicalRecord, error) {
	items, err := p.client.GetCollection(ctx, p.collection+"/", nil)
	records, err := p.decode(items, err)
	if err != nil || len(records) == 0 {
		return records, err
	}

	return filterRecords(records, func(r entities.CanonicalRecord) bool {
		switch {
		case ref.ID != "" && strings.TrimSpace(r.ID) == ref.ID:
			return true
		case utils.CodeEquals(ref.Code, r.Code):
			return true
		default:
			return utils.LooseEquals(ref.Name, r.Name)
		}
	}), nil
}

func (p *probes) object(ctx context.Context, path string) ([]entities.CanonicalRecord, error) {
	raw, err := p.client.GetObject(ctx, path)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record, err := entities.RecordFromJSON(p.kind, raw)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError("invalid record from "+path, err)
	}
	if record.ID == "" {
		return nil, apperrors.NewMalformedResponseError("record from "+path+" has no id", nil)
	}
	return []entities.CanonicalRecord{record}, nil
}

// decode maps a 404 to a confirmed empty result and every item to a record
func (p *probes) decode(items []json.RawMessage, err error) ([]entities.CanonicalRecord, error) {
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]entities.CanonicalRecord, 0, len(items))
	for _, item := range items {
		record, err := entities.RecordFromJSON(p.kind, item)
		if err != nil {
			return nil, apperrors.NewMalformedResponseError("invalid "+string(p.kind)+" in "+p.collection, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func filterRecords(records []entities.CanonicalRecord, keep func(entities.CanonicalRecord) bool) []entities.CanonicalRecord {
	var out []entities.CanonicalRecord
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
