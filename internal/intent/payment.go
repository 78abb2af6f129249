package intent

import (
	"regexp"

	"github.com/BTreeMap/Brenda/internal/models"
)

const (
	// FastRuleMaxWords bounds the length of a short payment affirmation.
	FastRuleMaxWords = 5
	// FastRuleConfidence is the confidence reported by the fast rule.
	FastRuleConfidence = 0.9
)

var (
	affirmativeToken = regexp.MustCompile(`^(s[ií]|sip|ok|okay|listo|hecho|pagad[oa]|pagu[eé]|transfer[ií]|transferido|deposit[eé]|depositado|enviad[oa]|envi[eé]|realizad[oa]|confirmo|perfecto|comprobante)$`)
	affirmativeEmoji = regexp.MustCompile(`[👍✅👌🙌💳🤝💸]`)
)

// IsShortAffirmation reports whether message is at most FastRuleMaxWords words
// and contains an affirmative token or emoji. Negated or not-yet messages
// such as "todavía no he pagado" never qualify.
func IsShortAffirmation(message string) bool {
	n := WordCount(message)
	if n == 0 || n > FastRuleMaxWords {
		return false
	}
	if IsPaymentPending(message) {
		return false
	}
	if affirmativeEmoji.MatchString(message) {
		return true
	}
	for _, tok := range Tokens(message) {
		if affirmativeToken.MatchString(tok) {
			return true
		}
	}
	return false
}

// DetectPaymentConfirmation is the rule that short-circuits the LLM: once bank
// details were sent, a short affirmation is a payment confirmation.
func DetectPaymentConfirmation(message string, bankDataSent bool) (models.IntentAnalysis, bool) {
	if !bankDataSent || !IsShortAffirmation(message) {
		return models.IntentAnalysis{}, false
	}
	return models.IntentAnalysis{
		Category:        models.CategoryPaymentConfirmation,
		Confidence:      FastRuleConfidence,
		DetectionMethod: models.DetectionFastRule,
		Reasoning:       "short affirmation after bank transfer details",
	}, true
}
