package syncer

import (
	"regexp"
	"strconv"
	"strings"
)

// IssueRef is a parsed display identifier such as "ENG-123".
type IssueRef struct {
	Identifier string
	Number     int
}

var refPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)-([0-9]+)$`)

// ParseIssueRefs extracts issue references from raw tokens. Tokens that do
// not match the prefix-dash-number shape, or whose number is not a positive
// integer, are returned in dropped rather than aborting the run.
func ParseIssueRefs(tokens []string) (refs []IssueRef, dropped []string) {
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		m := refPattern.FindStringSubmatch(token)
		if m == nil {
			dropped = append(dropped, token)
			continue
		}

		number, err := strconv.Atoi(m[2])
		if err != nil || number <= 0 {
			dropped = append(dropped, token)
			continue
		}

		refs = append(refs, IssueRef{
			Identifier: strings.ToUpper(m[1]) + "-" + m[2],
			Number:     number,
		})
	}

	return refs, dropped
}

// SplitCSV splits a comma-separated flag value into trimmed tokens.
func SplitCSV(value string) []string {
	var tokens []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
