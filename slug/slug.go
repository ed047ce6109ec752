// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package slug

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	// MaxLen caps poll ids at 32 characters; MinLen is the floor below
	// which the fallback literal is used instead.
	MaxLen = 32
	MinLen = 3

	// Fallback replaces a slug that normalizes to nothing usable.
	Fallback = "vote"

	// DefaultTemplate is applied when a poll or recurrence gives none.
	DefaultTemplate = "{title}-{close-mm-dd-yyyy}"

	// uniqueRetryCeiling bounds the numeric-suffix probe before the
	// timestamp fallback guarantees termination.
	uniqueRetryCeiling = 50
)

var ErrExistsCheck = errors.New("id existence check failed")

var tokenPattern = regexp.MustCompile(`\{[^{}]*\}`)

var knownTokens = map[string]bool{
	"{title}":            true,
	"{close-mm-dd-yyyy}": true,
	"{close-yyyy-mm-dd}": true,
	"{start-mm-dd-yyyy}": true,
	"{start-yyyy-mm-dd}": true,
}

// Slugify normalizes a string into the id alphabet [a-z0-9-]:
// lowercase, whitespace and underscore runs collapse to one dash,
// anything else outside the alphabet is stripped, repeated dashes
// collapse, and leading/trailing dashes are trimmed.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == '_' || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// ValidateTemplate rejects templates containing tokens the builder
// does not understand. Literal text between tokens is allowed; it is
// normalized through Slugify when the id is built.
func ValidateTemplate(format string) error {
	for _, token := range tokenPattern.FindAllString(format, -1) {
		if !knownTokens[token] {
			return fmt.Errorf("unknown template token %s", token)
		}
	}
	return nil
}

// BuildID renders an id candidate from the template. Start tokens
// render empty when startAt is nil. The result is re-normalized
// through the slug alphabet, falls back to the fixed literal when too
// short, and is truncated to MaxLen.
func BuildID(title string, closeAt time.Time, startAt *time.Time, format string) string {
	if format == "" {
		format = DefaultTemplate
	}

	replacements := []string{
		"{title}", Slugify(title),
		"{close-mm-dd-yyyy}", closeAt.Format("01-02-2006"),
		"{close-yyyy-mm-dd}", closeAt.Format("2006-01-02"),
		"{start-mm-dd-yyyy}", "",
		"{start-yyyy-mm-dd}", "",
	}
	if startAt != nil {
		replacements[7] = startAt.Format("01-02-2006")
		replacements[9] = startAt.Format("2006-01-02")
	}

	id := Slugify(strings.NewReplacer(replacements...).Replace(format))
	if len(id) < MinLen {
		id = Fallback
	}
	return truncate(id, MaxLen)
}

// UniqueID probes the store through existsCheck until the candidate is
// free, appending -2, -3, … and truncating the prefix to respect
// MaxLen. Past the retry ceiling a unix-timestamp suffix is used so
// the loop always terminates.
func UniqueID(candidate string, existsCheck func(id string) (bool, error)) (string, error) {
	taken, err := existsCheck(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExistsCheck, err)
	}
	if !taken {
		return candidate, nil
	}

	for n := 2; n <= uniqueRetryCeiling; n++ {
		id := withSuffix(candidate, strconv.Itoa(n))
		taken, err := existsCheck(id)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExistsCheck, err)
		}
		if !taken {
			return id, nil
		}
	}

	return withSuffix(candidate, strconv.FormatInt(time.Now().UnixNano(), 10)), nil
}

func withSuffix(candidate, suffix string) string {
	prefix := truncate(candidate, MaxLen-len(suffix)-1)
	return prefix + "-" + suffix
}

func truncate(id string, max int) string {
	if len(id) > max {
		id = id[:max]
	}
	return strings.TrimRight(id, "-")
}
