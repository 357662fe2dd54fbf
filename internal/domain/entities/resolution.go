package entities

// MatchKind names a resolution strategy
type MatchKind string

const (
	MatchExactID    MatchKind = "exact-id"
	MatchExactCode  MatchKind = "exact-code"
	MatchLooseName  MatchKind = "loose-name"
	MatchFullScan   MatchKind = "full-scan-filter"
	MatchCachedHint MatchKind = "cached-hint"
)

// ResolutionOutcome is the result of resolving a reference. A nil Record
// with a populated Attempted trail is a legitimate not-found.
type ResolutionOutcome struct {
	RequestID    string           `json:"requestId"`
	Reference    EntityReference  `json:"reference"`
	Record       *CanonicalRecord `json:"record"`
	StrategyUsed *MatchKind       `json:"strategyUsed"`
	Attempted    []MatchKind      `json:"attempted"`
	// FromHint is set when the record came from a verified resolution-cache hint.
	FromHint bool `json:"fromHint,omitempty"`
	// Stale is set when a newer request for the same caller scope superseded this one.
	Stale bool `json:"stale,omitempty"`
}

// Found reports whether a record was resolved.
func (o *ResolutionOutcome) Found() bool {
	return o != nil && o.Record != nil
}
