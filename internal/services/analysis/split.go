package analysis

import (
	"errors"
	"regexp"
	"strings"
)

// ErrSliceNotFound is returned when a batch reply has no section for a symbol.
var ErrSliceNotFound = errors.New("analysis: symbol section not found in batch reply")

// anyDelimiter matches any "=== X ===" line, optionally wrapped in markdown.
var anyDelimiter = regexp.MustCompile(`(?m)^[\s*#]*={3,}[^=\n]+={3,}[\s*]*$`)

func delimiterFor(symbol string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[\s*#]*={3,}\s*` + regexp.QuoteMeta(symbol) + `\s*={3,}[\s*]*$`)
}

// SliceFor returns the part of a batch reply that belongs to symbol: the text
// after its delimiter line up to the next delimiter or the end.
func SliceFor(reply, symbol string) (string, error) {
	loc := delimiterFor(symbol).FindStringIndex(reply)
	if loc == nil {
		return "", ErrSliceNotFound
	}

	rest := reply[loc[1]:]
	if next := anyDelimiter.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ErrSliceNotFound
	}
	return rest, nil
}
