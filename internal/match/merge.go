package match

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// Separator joins the accepted matches of one left value.
const Separator = ", "

// DefaultThreshold and DefaultLimit mirror the reconciliation defaults.
const (
	DefaultThreshold = 80
	DefaultLimit     = 1
)

// ratioParams weighs a substitution as a delete plus an insert, so
// Similarity yields (len1+len2-dist)/(len1+len2).
var ratioParams = levenshtein.NewParams().SubCost(2)

// Candidate is one right-hand value scored against a left value.
type Candidate struct {
	Value string `json:"value"`
	Score int    `json:"score"`
}

// MergeResult is a left value with its best candidates and the joined
// matches that passed the threshold.
type MergeResult struct {
	Value      string      `json:"value"`
	Candidates []Candidate `json:"candidates"`
	Matches    string      `json:"matches"`
}

// BestScore returns the top candidate score, or 0 when there is none.
func (r MergeResult) BestScore() int {
	if len(r.Candidates) == 0 {
		return 0
	}
	return r.Candidates[0].Score
}

// Merge finds, for every left value, up to limit right values with the
// highest Score, keeps those scoring >= threshold (0-100 scale) and joins
// them with Separator. A limit <= 0 considers every right value. Right
// values that are empty after processing are never candidates; duplicates
// are scored independently.
func Merge(left, right []string, threshold, limit int) []MergeResult {
	processed := make([]string, len(right))
	for i, r := range right {
		processed[i] = process(r)
	}

	out := make([]MergeResult, 0, len(left))
	for _, l := range left {
		pl := process(l)
		var cands []Candidate
		if pl != "" {
			for i, pr := range processed {
				if pr == "" {
					continue
				}
				cands = append(cands, Candidate{Value: right[i], Score: wratio(pl, pr)})
			}
		}
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
		if limit > 0 && len(cands) > limit {
			cands = cands[:limit]
		}

		var accepted []string
		for _, c := range cands {
			if c.Score >= threshold {
				accepted = append(accepted, c.Value)
			}
		}
		out = append(out, MergeResult{
			Value:      l,
			Candidates: cands,
			Matches:    strings.Join(accepted, Separator),
		})
	}
	return out
}

// Score returns the 0-100 approximate similarity of a and b.
func Score(a, b string) int {
	pa, pb := process(a), process(b)
	if pa == "" || pb == "" {
		return 0
	}
	return wratio(pa, pb)
}

// process lowercases, replaces everything but letters and digits with
// spaces and trims.
func process(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// wratio combines the plain, token-sort, token-set and partial ratios,
// scaling down the derived ratios so an exact match always wins.
func wratio(a, b string) int {
	const unbaseScale = 0.95
	partialScale := 0.90

	base := ratio(a, b)
	la, lb := float64(len([]rune(a))), float64(len([]rune(b)))
	lenRatio := math.Max(la, lb) / math.Min(la, lb)

	if lenRatio < 1.5 {
		tsor := tokenSortRatio(a, b, ratio) * unbaseScale
		tser := tokenSetRatio(a, b, ratio) * unbaseScale
		return round(math.Max(base, math.Max(tsor, tser)))
	}

	if lenRatio > 8 {
		partialScale = 0.6
	}
	partial := partialRatio(a, b) * partialScale
	ptsor := tokenSortRatio(a, b, partialRatio) * unbaseScale * partialScale
	ptser := tokenSetRatio(a, b, partialRatio) * unbaseScale * partialScale
	return round(math.Max(math.Max(base, partial), math.Max(ptsor, ptser)))
}

func ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return 100 * levenshtein.Similarity(a, b, ratioParams)
}

// partialRatio slides the shorter string over the longer one and keeps the
// best window ratio.
func partialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratio(s, string(long[i:i+len(short)]))
		if r > best {
			best = r
		}
		if best >= 99.5 {
			break
		}
	}
	return best
}

func tokenSortRatio(a, b string, scorer func(string, string) float64) float64 {
	return scorer(sortedTokens(a), sortedTokens(b))
}

func tokenSetRatio(a, b string, scorer func(string, string) float64) float64 {
	setA, setB := tokenSet(a), tokenSet(b)

	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	return math.Max(scorer(sect, combinedA), math.Max(scorer(sect, combinedB), scorer(combinedA, combinedB)))
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

func round(f float64) int {
	return int(math.Round(f))
}
