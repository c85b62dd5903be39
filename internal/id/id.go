// Package id generates prefixed unique identifiers for store entities.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// nanoidLength is the length of the random portion of every generated ID.
const nanoidLength = 21

// nanoidAlphabet is the default NanoID URL-safe alphabet.
const nanoidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Entity prefixes used throughout the application.
const (
	PrefixUser    = "user"
	PrefixBook    = "book"
	PrefixComment = "cmt"
	PrefixSession = "sess"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g. "book-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly and more compact than UUIDs while keeping
// comparable entropy. Returns an error if the system has insufficient
// entropy for secure random generation.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New(nanoidLength)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics on failure.
// Use only where failure should crash the program, such as initialization.
func MustGenerate(prefix string) string {
	generated, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return generated
}

// HasPrefix reports whether s is syntactically a store-assigned ID with the
// given prefix: "prefix-" followed by exactly nanoidLength alphabet characters.
// Book lookups use this to decide whether an opaque identifier should be tried
// as an internal ID before falling back to external-key indexes.
func HasPrefix(prefix, s string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok || len(rest) != nanoidLength {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if !strings.ContainsRune(nanoidAlphabet, rune(rest[i])) {
			return false
		}
	}
	return true
}
