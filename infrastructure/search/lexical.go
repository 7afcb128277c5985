// Package search provides the lexical index and vector index adapters.
package search

import "strings"

// tokenizeQuery splits a free-text query into quoted OR-joined terms for
// the full-text engine. OR semantics are deliberate: a lead matching a
// subset of the query terms must still rank (the ranking function weighs
// how many it matches), and quoting each term neutralizes engine syntax
// in user input.
func tokenizeQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}
