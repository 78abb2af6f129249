package intent

import "github.com/BTreeMap/Brenda/internal/models"

var (
	purchasePhrases = []string{
		"quiero comprar", "comprar", "comprarlo", "inscribirme", "me inscribo", "inscripción",
		"quiero el curso", "me apunto", "lo quiero", "cómo pago", "como le hago para pagar",
		"quiero pagar", "adquirir", "apartar mi lugar", "reservar mi lugar", "datos bancarios",
		"número de cuenta", "a dónde deposito",
	}
	pricePhrases    = []string{"precio", "cuánto cuesta", "costo", "cuánto vale", "inversión"}
	greetingPhrases = []string{"hola", "buenos días", "buenas tardes", "buenas noches", "buenas", "qué tal", "saludos"}
	timeObjections  = []string{"no tengo tiempo", "muy ocupado", "muy ocupada", "no me da tiempo"}
	priceObjections = []string{"muy caro", "está caro", "no me alcanza", "no tengo dinero", "descuento"}
	freeResources   = []string{"gratis", "recurso gratuito", "material gratuito", "muestra", "clase muestra"}
)

// KeywordClassifier is the local classifier used when the analyzer is unavailable.
type KeywordClassifier struct {
	faq *FAQMatcher
}

// NewKeywordClassifier creates a classifier that also consults the FAQ table.
func NewKeywordClassifier(faq *FAQMatcher) *KeywordClassifier {
	if faq == nil {
		faq = NewFAQMatcher(nil)
	}
	return &KeywordClassifier{faq: faq}
}

// Classify returns the first matching category. Order matters: advisor
// requests and purchase phrases outrank questions and greetings. Purchase
// phrases are ignored in negated messages ("no quiero comprar todavía").
func (k *KeywordClassifier) Classify(message string) (models.IntentAnalysis, bool) {
	text := Fold(message)
	if text == "" {
		return models.IntentAnalysis{}, false
	}
	result := func(c models.IntentCategory, conf float64, reason string) (models.IntentAnalysis, bool) {
		return models.IntentAnalysis{
			Category:        c,
			Confidence:      conf,
			DetectionMethod: models.DetectionKeywords,
			Reasoning:       reason,
		}, true
	}
	if ref, ok := DetectAdvisorRequest(message); ok {
		return result(models.CategoryAdvisorRequest, ref.Confidence, "advisor keyword "+ref.Keyword)
	}
	if kw, ok := containsAnyPhrase(text, purchasePhrases); ok && !HasNegation(message) {
		return result(models.CategoryPurchaseIntent, 0.75, "purchase keyword "+kw)
	}
	if kw, ok := containsAnyPhrase(text, priceObjections); ok {
		return result(models.CategoryObjectionPrice, 0.7, "objection keyword "+kw)
	}
	if kw, ok := containsAnyPhrase(text, timeObjections); ok {
		return result(models.CategoryObjectionTime, 0.7, "objection keyword "+kw)
	}
	if kw, ok := containsAnyPhrase(text, pricePhrases); ok {
		return result(models.CategoryPriceInquiry, 0.7, "price keyword "+kw)
	}
	if kw, ok := containsAnyPhrase(text, freeResources); ok {
		return result(models.CategoryFreeResources, 0.65, "resource keyword "+kw)
	}
	if m, ok := k.faq.Match(message); ok {
		return result(models.CategoryFAQ, 0.7, "faq "+m.Entry.Category)
	}
	if kw, ok := containsAnyPhrase(text, greetingPhrases); ok {
		return result(models.CategoryGreeting, 0.6, "greeting "+kw)
	}
	return models.IntentAnalysis{}, false
}
