package stats

import (
	"sort"
	"strconv"

	"github.com/sells-group/report-cli/internal/model"
	"github.com/sells-group/report-cli/internal/urlinfo"
)

// Count is a labeled frequency.
type Count struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// Summary describes a result table: where reports are hosted, which years
// they cover and how many were found per company.
type Summary struct {
	Records           int             `json:"records" yaml:"records"`
	Companies         int             `json:"companies" yaml:"companies"`
	Domains           []Count         `json:"domains" yaml:"domains"`
	Years             []Count         `json:"years" yaml:"years"`
	WithoutYear       int             `json:"without_year" yaml:"without_year"`
	ReportsPerCompany map[int]float64 `json:"reports_per_company_percentiles,omitempty" yaml:"reports_per_company_percentiles,omitempty"`
}

// Summarize aggregates the table. Years later than currentYear are not
// considered plausible.
func Summarize(table *model.ResultTable, currentYear int, percentiles []int) (*Summary, error) {
	s := &Summary{Records: table.Len()}

	domains := make(map[string]int)
	years := make(map[string]int)
	perCompany := make(map[string]int)
	for _, r := range table.Records {
		domains[urlinfo.Domain(r.URL)]++
		perCompany[r.Company]++
		if y, ok := urlinfo.Year(r.URL, currentYear); ok {
			years[strconv.Itoa(y)]++
		} else {
			s.WithoutYear++
		}
	}
	s.Companies = len(perCompany)
	s.Domains = sortedCounts(domains, false)
	s.Years = sortedCounts(years, true)

	if len(perCompany) == 0 {
		return s, nil
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	counts := make([]int, 0, len(perCompany))
	for _, n := range perCompany {
		counts = append(counts, n)
	}
	pt, err := Percentiles(Ints(counts), percentiles)
	if err != nil {
		return nil, err
	}
	s.ReportsPerCompany = pt
	return s, nil
}

// sortedCounts orders by count descending, then key. byKey orders by key
// descending instead (newest year first).
func sortedCounts(m map[string]int, byKey bool) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if byKey {
			return out[i].Key > out[j].Key
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
