package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinNameLength = 2
	MaxNameLength = 50
	maxNameWords  = 5
)

// Evasive or non-name answers to "¿cómo te llamas?".
var nameDenylist = map[string]struct{}{
	"no se": {}, "nose": {}, "nada": {}, "ninguno": {}, "ninguna": {}, "no quiero": {},
	"no te voy a decir": {}, "prefiero no decir": {}, "prefiero no decirlo": {}, "anonimo": {},
	"anonima": {}, "no importa": {}, "no tengo": {}, "nadie": {}, "hola": {}, "si": {}, "no": {},
	"ok": {}, "gracias": {}, "acepto": {}, "que": {}, "porque": {}, "para que": {}, "x": {},
	"na": {}, "equis": {}, "buenas": {}, "buenos dias": {}, "buenas tardes": {}, "buenas noches": {},
}

var namePrefixes = []string{
	"me llamo ", "mi nombre es ", "mi nombre: ", "soy ", "me dicen ", "puedes llamarme ",
	"llamame ", "nombre: ",
}

// ExtractUserName validates a reply to the name question and returns the
// capitalized name. It returns false for evasive answers, out-of-range lengths
// and text that is not made of letters.
func ExtractUserName(message string) (string, bool) {
	text := Normalize(trimPunct(message))
	folded := Fold(text)
	for _, p := range namePrefixes {
		if strings.HasPrefix(folded, p) {
			// Folding maps rune to rune, so the prefix spans the same rune count in text.
			text = dropRunes(text, utf8.RuneCountInString(p))
			break
		}
	}
	text = strings.TrimSpace(trimPunct(text))

	if _, denied := nameDenylist[Fold(text)]; denied {
		return "", false
	}
	n := utf8.RuneCountInString(text)
	if n < MinNameLength || n > MaxNameLength {
		return "", false
	}
	if len(strings.Fields(text)) > maxNameWords {
		return "", false
	}

	letters := 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '-' || r == '\'' || r == '.':
		default:
			return "", false
		}
	}
	if letters < MinNameLength {
		return "", false
	}
	return CapitalizeName(text), true
}

func dropRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}

// CapitalizeName title-cases every word and every hyphen-separated part:
// "maría josé" -> "María José", "ana-lucía" -> "Ana-Lucía".
func CapitalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			parts[j] = capitalize(p)
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
