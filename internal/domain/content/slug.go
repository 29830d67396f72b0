package content

import (
	"regexp"
	"strings"
)

// jsSpace is the whitespace set existing slugs were produced with. RE2's \s
// is ASCII-only and misses \v, NBSP and the Unicode spaces.
const jsSpace = `\t\n\x0b\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	slugStrip      = regexp.MustCompile(`[^\w` + jsSpace + `-]`)
	whitespaceRuns = regexp.MustCompile(`[` + jsSpace + `]+`)
	hyphenRuns     = regexp.MustCompile(`-+`)
)

func isSlugSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

func trimSlugSpace(s string) string { return strings.TrimFunc(s, isSlugSpace) }

// Slugify lowercases, trims, strips everything outside [\w\s-], turns
// whitespace runs into a hyphen and collapses repeated hyphens.
// The exact order matters: existing slugs were produced this way.
func Slugify(text string) string {
	s := trimSlugSpace(strings.ToLower(text))
	s = slugStrip.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	return hyphenRuns.ReplaceAllString(s, "-")
}

// NormalizeDocID turns free text into a document id: whitespace runs become
// hyphens and repeated hyphens collapse. Case and punctuation are kept.
func NormalizeDocID(text string) string {
	s := whitespaceRuns.ReplaceAllString(trimSlugSpace(text), "-")
	return hyphenRuns.ReplaceAllString(s, "-")
}
