package intent

// Consent is the tri-state answer to a yes/no question.
type Consent int

const (
	ConsentUnclear Consent = iota
	ConsentAccepted
	ConsentRejected
)

func (c Consent) String() string {
	switch c {
	case ConsentAccepted:
		return "accepted"
	case ConsentRejected:
		return "rejected"
	}
	return "unclear"
}

// Single-word answers only count when they are the whole message, so that
// "no sé" is not read as a rejection.
var (
	rejectWords   = []string{"no", "nop", "nope", "nel", "negativo", "jamas", "nunca"}
	rejectPhrases = []string{
		"no acepto", "no quiero", "no estoy de acuerdo", "no autorizo", "no doy permiso",
		"no doy mi consentimiento", "no gracias", "no, gracias", "rechazo", "no me interesa",
		"no deseo", "no lo acepto",
	}
	acceptWords = []string{
		"si", "sí", "ok", "okay", "va", "vale", "dale", "claro", "listo", "perfecto",
		"adelante", "correcto", "aceptar", "👍", "✅", "👌",
	}
	acceptPhrases = []string{
		"acepto", "sí acepto", "si acepto", "estoy de acuerdo", "de acuerdo", "autorizo",
		"doy mi consentimiento", "doy mi permiso", "claro que sí", "por supuesto", "sí, acepto",
		"acepto el aviso", "acepto los términos",
	}
)

// RejectKeywords returns every keyword classified as a rejection.
func RejectKeywords() []string {
	return append(append([]string{}, rejectWords...), rejectPhrases...)
}

// AcceptKeywords returns every keyword classified as an acceptance.
func AcceptKeywords() []string {
	return append(append([]string{}, acceptWords...), acceptPhrases...)
}

// ExtractConsentResponse classifies a reply to the privacy notice or any other
// yes/no question. Rejections are checked first so that "no acepto" never
// matches the "acepto" acceptance.
func ExtractConsentResponse(message string) Consent {
	text := Fold(trimPunct(message))
	if text == "" {
		return ConsentUnclear
	}
	for _, w := range rejectWords {
		if text == Fold(w) {
			return ConsentRejected
		}
	}
	if _, ok := containsAnyPhrase(text, rejectPhrases); ok {
		return ConsentRejected
	}
	for _, w := range acceptWords {
		if text == Fold(w) {
			return ConsentAccepted
		}
	}
	if _, ok := containsAnyPhrase(text, acceptPhrases); ok {
		return ConsentAccepted
	}
	return ConsentUnclear
}
