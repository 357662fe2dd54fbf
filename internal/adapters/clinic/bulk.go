package clinic

import (
	"context"
	"encoding/json"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
	"github.com/zatekoja/clinicdesk/backend/pkg/utils"
)

// Owner fields a bulk item may reference its patient or doctor through
var ownerFields = []string{"patient", "patientId", "doctor", "doctorId", "userId"}

// BulkScanner filters a whole record collection down to one entity
type BulkScanner struct {
	client   clinicapi.Client
	endpoint config.SourceCatalog
	parser   *dates.Parser
}

// NewBulkScanner creates the low-confidence fallback over endpoint.Path
func NewBulkScanner(client clinicapi.Client, endpoint config.SourceCatalog, parser *dates.Parser) *BulkScanner {
	return &BulkScanner{client: client, endpoint: endpoint, parser: parser}
}

// Scan keeps items whose owner id, code or name matches ref
func (b *BulkScanner) Scan(ctx context.Context, ref entities.EntityReference) ([]entities.SourceRecord, error) {
	items, err := b.client.GetCollection(ctx, b.endpoint.Path, nil)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return []entities.SourceRecord{}, nil
		}
		return nil, err
	}

	matched := make([]json.RawMessage, 0)
	for _, item := range items {
		var m map[string]interface{}
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		if ownedBy(m, ref) {
			matched = append(matched, item)
		}
	}
	return normalizeItems(b.endpoint, b.parser, matched)
}

func ownedBy(m map[string]interface{}, ref entities.EntityReference) bool {
	for _, field := range ownerFields {
		value, ok := m[field]
		if !ok {
			continue
		}
		owner := entities.ForeignKeyFromValue(value)
		if ref.ID != "" && owner.ID == ref.ID {
			return true
		}
		if utils.CodeEquals(ref.Code, owner.Code) {
			return true
		}
		if utils.LooseEquals(ref.Name, owner.Name) {
			return true
		}
	}

	if utils.CodeEquals(ref.Code, entities.StringField(m, "patientCode", "doctorCode")) {
		return true
	}
	return utils.LooseEquals(ref.Name, entities.StringField(m, "patientName", "doctorName"))
}
