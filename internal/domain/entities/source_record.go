package entities

import (
	"sort"
	"strconv"

	"github.com/zatekoja/clinicdesk/backend/pkg/dates"
)

// SourceRecord is one record about a resolved entity, normalized from a
// source-specific payload.
type SourceRecord struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	ActorName     string     `json:"actorName"`
	Timestamp     dates.Date `json:"timestamp"`
	AttachmentURL string     `json:"attachmentUrl,omitempty"`
}

// DedupKey is the composite source:id key. Records only collapse within the
// same origin.
func (r SourceRecord) DedupKey() string {
	return r.Source + ":" + r.ID
}

// Confidence flags how much a caller should trust an aggregated view
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow marks views built by heuristic filtering of a bulk dataset.
	ConfidenceLow Confidence = "low"
)

// AggregatedView is the deduplicated union of every source's records in
// first-seen order.
type AggregatedView struct {
	Records       []SourceRecord `json:"records"`
	FailedSources []string       `json:"failedSources,omitempty"`
	Confidence    Confidence     `json:"confidence"`
}

// Empty reports whether the view carries no records.
func (v *AggregatedView) Empty() bool {
	return v == nil || len(v.Records) == 0
}

// Degraded reports a partial aggregation failure.
func (v *AggregatedView) Degraded() bool {
	return v != nil && len(v.FailedSources) > 0
}

// SortByRecency orders records newest first with undated records last. The
// aggregator never sorts; callers that need recency order call this.
func (v *AggregatedView) SortByRecency() {
	sort.SliceStable(v.Records, func(i, j int) bool {
		a, b := v.Records[i].Timestamp, v.Records[j].Timestamp
		if a.Valid() != b.Valid() {
			return a.Valid()
		}
		return b.Before(a)
	})
}

// MergeSourceRecords concatenates lists in order and drops later records
// whose source:id key was already seen. Records without an id cannot be
// matched and are always kept.
func MergeSourceRecords(lists ...[]SourceRecord) []SourceRecord {
	seen := make(map[string]struct{})
	merged := make([]SourceRecord, 0)
	for i, list := range lists {
		for j, record := range list {
			key := record.DedupKey()
			if record.ID == "" {
				key = "\x00" + strconv.Itoa(i) + ":" + strconv.Itoa(j)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, record)
		}
	}
	return merged
}
