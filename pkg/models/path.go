package models

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// JoinPath appends a segment to a parent path. An empty parent denotes the root.
func JoinPath(parentPath, segment string) string {
	if parentPath == "" {
		return segment
	}
	return parentPath + PathSeparator + segment
}

// NoteFileName renders the path segment of a note
func NoteFileName(title, syntax string) string {
	return title + "." + syntax
}

// PrefixRange returns the half-open range [lo, hi) that contains exactly the
// strings starting with folderPath + "/" under byte-wise comparison.
// '0' is the byte after '/', so hi is the first string past the prefix.
func PrefixRange(folderPath string) (lo, hi string) {
	return folderPath + PathSeparator, folderPath + "0"
}

// NormalizeTitle trims and NFC-normalizes a title and rejects titles that
// would make a full path ambiguous.
func NormalizeTitle(title string) (string, error) {
	t := norm.NFC.String(strings.TrimSpace(title))
	switch {
	case t == "":
		return "", &InvalidTitleError{Title: title, Reason: "title is empty"}
	case strings.Contains(t, PathSeparator):
		return "", &InvalidTitleError{Title: title, Reason: fmt.Sprintf("title contains %q", PathSeparator)}
	case strings.IndexFunc(t, unicode.IsControl) >= 0:
		return "", &InvalidTitleError{Title: title, Reason: "title contains control characters"}
	}
	return t, nil
}

// NormalizeSyntax lower-cases a syntax token, applying DefaultSyntax when empty.
func NormalizeSyntax(syntax string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(syntax))
	if s == "" {
		return DefaultSyntax, nil
	}
	if strings.ContainsAny(s, "/. \t") {
		return "", &InvalidTitleError{Title: syntax, Reason: "syntax must be a single token without '/' or '.'"}
	}
	return s, nil
}
