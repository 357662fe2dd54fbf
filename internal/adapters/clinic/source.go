package clinic

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
	"github.com/zatekoja/clinicdesk/backend/internal/infrastructure/clients/clinicapi"
	"github.com/zatekoja/clinicdesk/backend/pkg/config"
	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
)

const (
	fallbackStatus   = "Pending"
	fallbackPriority = "-"
)

// Field aliases of the per-entity record endpoints
var (
	typeFields       = []string{"type", "testType", "testName", "category", "name"}
	statusFields     = []string{"status", "resultStatus"}
	priorityFields   = []string{"priority", "urgency"}
	actorFields      = []string{"doctorName", "technician", "performedBy", "orderedBy", "doctor", "patientName", "patient"}
	timestampFields  = []string{"date", "testDate", "resultDate", "completedAt", "createdAt", "updatedAt"}
	attachmentFields = []string{"attachmentUrl", "fileUrl", "reportUrl", "resultFile"}
)

// HTTPSource is a catalog-described record endpoint
type HTTPSource struct {
	client   clinicapi.Client
	endpoint config.SourceCatalog
	parser   *dates.Parser
	timeout  time.Duration
}

// NewHTTPSource creates a record source from its catalog entry
func NewHTTPSource(client clinicapi.Client, endpoint config.SourceCatalog, parser *dates.Parser, timeout time.Duration) *HTTPSource {
	return &HTTPSource{client: client, endpoint: endpoint, parser: parser, timeout: timeout}
}

// Name returns the origin tag
func (s *HTTPSource) Name() string {
	return s.endpoint.Name
}

// Timeout returns the per-source bound
func (s *HTTPSource) Timeout() time.Duration {
	return s.timeout
}

// Fetch lists and normalizes the entity's records. A path placeholder the
// entity cannot fill, or a 404, means the source has nothing for it.
func (s *HTTPSource) Fetch(ctx context.Context, entity entities.CanonicalRecord) ([]entities.SourceRecord, error) {
	path, ok := expandPath(s.endpoint.Path, entity.Reference())
	if !ok {
		return []entities.SourceRecord{}, nil
	}

	items, err := s.client.GetCollection(ctx, path, nil)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return []entities.SourceRecord{}, nil
		}
		return nil, err
	}
	return normalizeItems(s.endpoint, s.parser, items)
}

func normalizeItems(endpoint config.SourceCatalog, parser *dates.Parser, items []json.RawMessage) ([]entities.SourceRecord, error) {
	records := make([]entities.SourceRecord, 0, len(items))
	for _, item := range items {
		var m map[string]interface{}
		if err := json.Unmarshal(item, &m); err != nil {
			return nil, apperrors.NewMalformedResponseError("source "+endpoint.Name+" returned a non-object item", err)
		}
		records = append(records, normalizeRecord(endpoint, parser, m))
	}
	return records, nil
}

func normalizeRecord(endpoint config.SourceCatalog, parser *dates.Parser, m map[string]interface{}) entities.SourceRecord {
	return entities.SourceRecord{
		ID:            entities.StringField(m, "_id", "id"),
		Source:        endpoint.Name,
		Type:          firstNonEmpty(entities.StringField(m, typeFields...), endpoint.Type),
		Status:        firstNonEmpty(entities.StringField(m, statusFields...), endpoint.DefaultStatus, fallbackStatus),
		Priority:      firstNonEmpty(entities.StringField(m, priorityFields...), endpoint.DefaultPriority, fallbackPriority),
		ActorName:     entities.StringField(m, actorFields...),
		Timestamp:     parser.Parse(entities.StringField(m, timestampFields...)),
		AttachmentURL: entities.StringField(m, attachmentFields...),
	}
}

// expandPath fills {id}, {code} and {name}. It reports false when the
// template needs a field the reference does not carry.
func expandPath(template string, ref entities.EntityReference) (string, bool) {
	path := template
	for placeholder, value := range map[string]string{
		"{id}":   ref.ID,
		"{code}": ref.Code,
		"{name}": ref.Name,
	} {
		if !strings.Contains(path, placeholder) {
			continue
		}
		if strings.TrimSpace(value) == "" {
			return "", false
		}
		path = strings.ReplaceAll(path, placeholder, url.PathEscape(strings.TrimSpace(value)))
	}
	return path, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
