// Package urlinfo recovers the hosting domain and the most plausible
// publication year from report URLs.
package urlinfo

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MinYear is the earliest year considered plausible for a report.
const MinYear = 1900

var yearRe = regexp.MustCompile(`\d{4}`)

// Domain returns scheme://host for rawURL, discarding path and query.
// It returns "" when rawURL cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Year scans rawURL for four-digit runs, keeps those in
// [MinYear, currentYear] and returns the largest. ok is false when no
// candidate qualifies.
func Year(rawURL string, currentYear int) (year int, ok bool) {
	for _, m := range yearRe.FindAllString(rawURL, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y < MinYear || y > currentYear {
			continue
		}
		if !ok || y > year {
			year, ok = y, true
		}
	}
	return year, ok
}

// Filename returns the final "/"-separated segment of rawURL, which is the
// name a downloaded report is stored under.
func Filename(rawURL string) string {
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		return rawURL[i+1:]
	}
	return rawURL
}

// IsPDF reports whether link ends with ".pdf". The check is case-sensitive
// unless caseInsensitive is set.
func IsPDF(link string, caseInsensitive bool) bool {
	if caseInsensitive {
		return strings.HasSuffix(strings.ToLower(link), ".pdf")
	}
	return strings.HasSuffix(link, ".pdf")
}
