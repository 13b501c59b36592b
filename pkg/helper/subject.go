package helper

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

var diacritics = strings.NewReplacer(
	"ă", "a", "â", "a", "î", "i", "ș", "s", "ş", "s", "ț", "t", "ţ", "t",
	"Ă", "A", "Â", "A", "Î", "I", "Ș", "S", "Ş", "S", "Ț", "T", "Ţ", "T",
)

// foldSubject lower-cases and strips romanian diacritics.
func foldSubject(s string) string {
	return strings.ToLower(diacritics.Replace(strings.TrimSpace(s)))
}

// MatchSubject reports whether query names subject. Every word of the query
// must start a word of the subject ("mate" finds "Matematică"), otherwise the
// two must be similar enough.
func MatchSubject(query, subject string) bool {
	query, subject = foldSubject(query), foldSubject(subject)
	if query == "" {
		return true
	}
	queryParts := strings.Fields(query)
	subjectParts := strings.Fields(subject)

	var queryPartsFound int
	for _, queryPart := range queryParts {
		for _, subjectPart := range subjectParts {
			if strings.HasPrefix(subjectPart, queryPart) {
				queryPartsFound++
				break
			}
		}
	}
	if queryPartsFound == len(queryParts) {
		return true
	}

	metric := metrics.NewJaccard()
	metric.CaseSensitive = false
	return strutil.Similarity(query, subject, metric) >= 0.8
}
