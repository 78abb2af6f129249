// Package intent implements the rule-based matchers that classify inbound text:
// consent answers, names, FAQ questions, ad hashtags, course announcements,
// advisor requests, payment confirmations and course selections.
//
// All matchers are pure functions of the message text and their tables.
package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
)

// Normalize lowercases, trims and collapses whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fold normalizes s and strips Spanish accents (ñ is kept).
func Fold(s string) string {
	return accentFolder.Replace(Normalize(s))
}

// trimPunct removes leading and trailing punctuation. Symbols such as emoji are kept.
func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// Tokens splits folded text into words without surrounding punctuation.
func Tokens(s string) []string {
	var out []string
	for _, f := range strings.Fields(Fold(s)) {
		if t := trimPunct(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// WordCount counts whitespace separated words, emoji included.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be folded.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if !isWordRune(lastRune(text[:i])) && !isWordRune(firstRune(text[end:])) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return false
}

func lastRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	if s == "" {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func containsAnyPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if containsPhrase(text, Fold(p)) {
			return p, true
		}
	}
	return "", false
}

// ContainsAny returns the first of phrases found as whole words in message,
// ignoring case and accents.
func ContainsAny(message string, phrases []string) (string, bool) {
	return containsAnyPhrase(Fold(message), phrases)
}
