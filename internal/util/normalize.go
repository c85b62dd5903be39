// Package util provides common utility functions.
package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeKey canonicalizes a username or email for unique-index storage
// and lookup. Identity is decided on the normalized form, so "Reader@x.COM"
// and "reader@x.com" are the same account.
//
// Normalization rules:
//  1. Trim whitespace
//  2. Unicode NFKC normalization (compatibility composition)
//  3. Unicode case folding
func NormalizeKey(input string) string {
	s := strings.TrimSpace(input)
	s = norm.NFKC.String(s)
	return foldCaser.String(s)
}
