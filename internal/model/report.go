// Package model holds the records shared by the discovery pipeline, the
// result stores and the reconciliation commands.
package model

// ReportRecord is one discovered report link for a company. It is the unit
// of persisted state in the result table.
type ReportRecord struct {
	Index   int    `json:"index" yaml:"index"`
	Company string `json:"company" yaml:"company"`
	URL     string `json:"url" yaml:"url"`
}

// Key identifies a record by its (company, url) pair.
func (r ReportRecord) Key() RecordKey {
	return RecordKey{Company: r.Company, URL: r.URL}
}

// RecordKey is the (company, url) pair used by the dedup policy.
type RecordKey struct {
	Company string
	URL     string
}

// AccumulatePolicy controls how new records are merged into a result table.
type AccumulatePolicy string

const (
	// AccumulateAppend concatenates new records without any uniqueness
	// check. Re-running a discovery pass accumulates duplicate rows.
	AccumulateAppend AccumulatePolicy = "append"
	// AccumulateDedup drops records whose (company, url) pair is already
	// present in the table or earlier in the same batch.
	AccumulateDedup AccumulatePolicy = "dedup"
)

// ResultTable is the growable, append-oriented collection of report records.
type ResultTable struct {
	Records []ReportRecord `json:"records" yaml:"records"`
}

// NewResultTable returns an empty table.
func NewResultTable() *ResultTable {
	return &ResultTable{Records: []ReportRecord{}}
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Append merges records into the table under policy and returns how many
// rows were added. Row indexes are reassigned positionally.
func (t *ResultTable) Append(records []ReportRecord, policy AccumulatePolicy) int {
	added := 0
	switch policy {
	case AccumulateDedup:
		seen := make(map[RecordKey]struct{}, len(t.Records)+len(records))
		for _, r := range t.Records {
			seen[r.Key()] = struct{}{}
		}
		for _, r := range records {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			seen[r.Key()] = struct{}{}
			t.Records = append(t.Records, r)
			added++
		}
	default:
		t.Records = append(t.Records, records...)
		added = len(records)
	}
	t.Reindex()
	return added
}

// Reindex assigns positional row indexes starting at zero.
func (t *ResultTable) Reindex() {
	for i := range t.Records {
		t.Records[i].Index = i
	}
}

// Companies returns the distinct company names in first-seen order.
func (t *ResultTable) Companies() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Records {
		if _, ok := seen[r.Company]; ok {
			continue
		}
		seen[r.Company] = struct{}{}
		out = append(out, r.Company)
	}
	return out
}

// ParseAccumulatePolicy maps the store.dedup config flag to a policy.
func ParseAccumulatePolicy(dedup bool) AccumulatePolicy {
	if dedup {
		return AccumulateDedup
	}
	return AccumulateAppend
}
