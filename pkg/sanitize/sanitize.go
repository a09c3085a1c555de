// Package sanitize holds the field-level allow-list filters applied at the
// request boundary before anything reaches a repository.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxNameLength  = 100
	MinUsername    = 3
	MaxUsername    = 30
	MaxBioLength   = 500
	MaxTitleLength = 200
	MaxStoryLength = 5000
)

var (
	ErrRequired       = errors.New("is required")
	ErrNameChars      = errors.New("may only contain letters, spaces, hyphens and apostrophes")
	ErrNameLength     = errors.New("must be at most 100 characters")
	ErrUsernameLength = errors.New("must be between 3 and 30 characters")
	ErrUsernameChars  = errors.New("may only contain letters, numbers and hyphens, and must start and end with a letter or number")
	ErrBioLength      = errors.New("must be at most 500 characters")
	ErrTitleLength    = errors.New("must be at most 200 characters")
	ErrStoryLength    = errors.New("must be at most 5000 characters")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?$`)

var (
	strictPolicy = bluemonday.StrictPolicy()
	storyPolicy  = newStoryPolicy()
)

func newStoryPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "b", "i", "ul", "ol", "li")
	return p
}

// Name validates a display name.
func Name(raw string) (string, error) {
	s := collapseSpaces(raw)
	if s == "" {
		return "", ErrRequired
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", ErrNameLength
	}
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' || r == '’' {
			continue
		}
		return "", ErrNameChars
	}
	return s, nil
}

// Username validates a storefront handle and returns it lower-cased.
func Username(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < MinUsername || len(s) > MaxUsername {
		return "", ErrUsernameLength
	}
	if !usernameRe.MatchString(s) {
		return "", ErrUsernameChars
	}
	return strings.ToLower(s), nil
}

// Bio strips all markup and control characters.
func Bio(raw string) (string, error) {
	s := stripControl(strictPolicy.Sanitize(raw))
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxBioLength {
		return "", ErrBioLength
	}
	return s, nil
}

// Title strips markup and collapses whitespace.
func Title(raw string) (string, error) {
	s := collapseSpaces(stripControl(strictPolicy.Sanitize(raw)))
	if s == "" {
		return "", ErrRequired
	}
	if utf8.RuneCountInString(s) > MaxTitleLength {
		return "", ErrTitleLength
	}
	return s, nil
}

// Story keeps basic formatting tags and drops everything else.
// The length limit applies to the submitted text.
func Story(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrRequired
	}
	if utf8.RuneCountInString(s) > MaxStoryLength {
		return "", ErrStoryLength
	}
	out := strings.TrimSpace(stripControl(storyPolicy.Sanitize(s)))
	if out == "" {
		return "", ErrRequired
	}
	return out, nil
}

// PlainText strips markup and control characters and enforces a rune limit.
func PlainText(raw string, max int) (string, bool) {
	s := strings.TrimSpace(stripControl(strictPolicy.Sanitize(raw)))
	return s, utf8.RuneCountInString(s) <= max
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
