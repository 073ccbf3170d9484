// Package text holds local cleanup applied to extracted page text before
// it is sent for correction.
package text

import (
	"regexp"
	"strings"
)

// Rule rewrites text. Rules must be deterministic.
type Rule func(string) string

// Normalizer runs its rules in order and always trims surrounding
// whitespace last, so the output never starts or ends with whitespace.
type Normalizer struct {
	rules []Rule
}

// NewNormalizer creates a normalizer with the given extra rules.
func NewNormalizer(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Normalize applies the rules and trims the result.
func (n *Normalizer) Normalize(text string) string {
	for _, rule := range n.rules {
		text = rule(text)
	}
	return strings.TrimSpace(text)
}

var hyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\r?\n[ \t]*(\p{L})`)

// JoinHyphenated joins words split across lines with a trailing hyphen.
func JoinHyphenated(text string) string {
	return hyphenBreak.ReplaceAllString(text, "$1$2")
}
