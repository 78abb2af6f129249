package intent

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/BTreeMap/Brenda/internal/models"
)

// Selection strategies, in evaluation order.
const (
	StrategyIndex        = "index"
	StrategyLevel        = "level"
	StrategyNameMatch    = "name"
	StrategyTopicKeyword = "topic"
	// StrategyCatalogSearch is applied by callers that can query the catalog.
	StrategyCatalogSearch = "search"
)

var levelSynonyms = map[string][]string{
	"basico":     {"basico", "principiante", "inicial", "introductorio", "desde cero", "nivel 1", "fundamentos"},
	"intermedio": {"intermedio", "medio", "nivel 2"},
	"avanzado":   {"avanzado", "experto", "profesional", "nivel 3", "master"},
}

var levelOrder = []string{"basico", "intermedio", "avanzado"}

var ordinalWords = map[string]int{
	"uno": 1, "primero": 1, "primer": 1, "primera": 1,
	"dos": 2, "segundo": 2, "segunda": 2,
	"tres": 3, "tercero": 3, "tercer": 3, "tercera": 3,
	"cuatro": 4, "cuarto": 4, "cuarta": 4,
	"cinco": 5, "quinto": 5, "quinta": 5,
}

// topicKeywords maps topical words onto the topics a course lists in Course.Topics.
var topicKeywords = map[string][]string{
	"ia":             {"ia", "inteligencia artificial", "chatgpt", "gpt", "gemini", "ai", "prompts"},
	"automatizacion": {"automatizacion", "automatizar", "automatiza", "procesos", "flujos", "bots"},
	"marketing":      {"marketing", "mercadotecnia", "redes sociales", "contenido", "publicidad", "ventas"},
	"datos":          {"datos", "analisis", "excel", "reportes", "dashboards"},
}

var topicOrder = []string{"ia", "automatizacion", "marketing", "datos"}

var nameStopwords = map[string]struct{}{
	"curso": {}, "para": {}, "con": {}, "del": {}, "las": {}, "los": {}, "una": {}, "uno": {},
	"nivel": {}, "tu": {}, "sus": {}, "que": {}, "quiero": {}, "el": {}, "la": {}, "de": {},
}

// ParseCourseSelection picks a course from the presented list. It tries a
// numeric index, then level synonyms, then course name and description
// tokens, then topical keywords. The first strategy that matches wins.
func ParseCourseSelection(message string, courses []models.Course) (models.Course, string, bool) {
	if len(courses) == 0 {
		return models.Course{}, "", false
	}
	text := Fold(message)
	if text == "" {
		return models.Course{}, "", false
	}
	if c, ok := selectByIndex(text, courses); ok {
		return c, StrategyIndex, true
	}
	if c, ok := selectByLevel(text, courses); ok {
		return c, StrategyLevel, true
	}
	if c, ok := selectByName(text, courses); ok {
		return c, StrategyNameMatch, true
	}
	if c, ok := selectByTopic(text, courses); ok {
		return c, StrategyTopicKeyword, true
	}
	return models.Course{}, "", false
}

func selectByIndex(text string, courses []models.Course) (models.Course, bool) {
	toks := Tokens(text)
	if len(toks) == 0 || len(toks) > 3 {
		return models.Course{}, false
	}
	for _, tok := range toks {
		tok = strings.TrimSuffix(strings.TrimSuffix(tok, "\u20e3"), "\ufe0f")
		n, err := strconv.Atoi(tok)
		if err != nil {
			var ok bool
			if n, ok = ordinalWords[tok]; !ok {
				continue
			}
		}
		if n >= 1 && n <= len(courses) {
			return courses[n-1], true
		}
		return models.Course{}, false
	}
	return models.Course{}, false
}

func selectByLevel(text string, courses []models.Course) (models.Course, bool) {
	for _, level := range levelOrder {
		if _, ok := containsAnyPhrase(text, levelSynonyms[level]); !ok {
			continue
		}
		for _, c := range courses {
			if _, ok := containsAnyPhrase(Fold(c.Level), levelSynonyms[level]); ok {
				return c, true
			}
		}
	}
	return models.Course{}, false
}

func selectByName(text string, courses []models.Course) (models.Course, bool) {
	for _, c := range courses {
		if name := Fold(c.Name); name != "" && containsPhrase(text, name) {
			return c, true
		}
	}
	best, bestScore := -1, 0
	msgTokens := significantTokens(text)
	for i, c := range courses {
		courseTokens := significantTokens(c.Name + " " + c.ShortDescription)
		score := 0
		for t := range msgTokens {
			if _, ok := courseTokens[t]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return courses[best], true
	}
	return models.Course{}, false
}

func significantTokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range Tokens(s) {
		if len([]rune(t)) < 4 {
			continue
		}
		if _, stop := nameStopwords[t]; stop {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

func selectByTopic(text string, courses []models.Course) (models.Course, bool) {
	for _, topic := range topicOrder {
		if _, ok := containsAnyPhrase(text, topicKeywords[topic]); !ok {
			continue
		}
		for _, c := range courses {
			for _, t := range c.Topics {
				if Fold(t) == topic {
					return c, true
				}
			}
		}
	}
	return models.Course{}, false
}

// SearchTerms returns the lowercased words of message worth a catalog keyword
// search, in message order and without duplicates. Accents are kept because
// catalog text is stored with them.
func SearchTerms(message string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(message)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) < 4 {
			continue
		}
		if _, stop := nameStopwords[Fold(w)]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
