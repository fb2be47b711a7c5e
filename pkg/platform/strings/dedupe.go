// Package strings holds small helpers for the comma-separated lists that
// arrive through the environment, such as Kafka broker addresses.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and duplicates, keeping
// first-occurrence order. Splitting "a, b,,a" on commas yields ["a", "b"].
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
