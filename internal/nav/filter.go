package nav

import (
	"fmt"
	"strings"
)

// OData $filter fragments used to be assembled by raw string concatenation of
// caller-supplied values. Every value now goes through Quote so a stray
// apostrophe (or a crafted one) cannot break out of the literal.

// Quote returns v as an OData string literal with single quotes doubled.
func Quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// Eq builds `field eq 'value'` with the value quoted.
func Eq(field, value string) string {
	return fmt.Sprintf("%s eq %s", field, Quote(value))
}

// EqNum builds `field eq value` for numeric literals.
func EqNum(field string, value int) string {
	return fmt.Sprintf("%s eq %d", field, value)
}

// And joins non-empty clauses with `and`.
func And(clauses ...string) string {
	return joinClauses(" and ", clauses)
}

// Or joins non-empty clauses with `or`.
func Or(clauses ...string) string {
	return joinClauses(" or ", clauses)
}

func joinClauses(sep string, clauses []string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, sep)
}
