// Package utils holds small helpers shared across layers. Nothing in here
// knows about the domain.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, falling back to def when s is empty
// or not a valid integer. Query parameters are the main caller, so garbage
// input is expected and never an error.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
