package intent

var advisorPhrases = []string{
	"asesor", "asesora", "hablar con alguien", "hablar con una persona", "persona real",
	"humano", "agente", "ejecutivo de ventas", "vendedor", "llamada", "llámame", "llamenme",
	"me pueden llamar", "me puedes llamar", "contactar a alguien", "atención personalizada",
	"hablar por teléfono", "quiero que me contacten",
}

// AdvisorReferral is the result of the advisor-request detector.
type AdvisorReferral struct {
	Keyword    string
	Confidence float64
}

// DetectAdvisorRequest reports whether the user asks to talk to a human advisor.
func DetectAdvisorRequest(message string) (AdvisorReferral, bool) {
	kw, ok := containsAnyPhrase(Fold(message), advisorPhrases)
	if !ok {
		return AdvisorReferral{}, false
	}
	conf := 0.8
	if WordCount(message) <= 4 {
		conf = 0.9
	}
	return AdvisorReferral{Keyword: kw, Confidence: conf}, true
}
