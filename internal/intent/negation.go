package intent

var negators = map[string]struct{}{
	"no": {}, "nunca": {}, "jamas": {}, "tampoco": {}, "ni": {}, "nada": {},
}

// paymentPendingMarkers say the transfer is still to come.
var paymentPendingMarkers = map[string]struct{}{
	"todavia": {}, "aun": {}, "pendiente": {}, "falta": {}, "luego": {}, "despues": {}, "manana": {},
}

// HasNegation reports whether message contains a negating word.
func HasNegation(message string) bool {
	return hasAnyToken(message, negators)
}

// IsPaymentPending reports whether message is negated or says the payment
// has not happened yet.
func IsPaymentPending(message string) bool {
	return hasAnyToken(message, negators) || hasAnyToken(message, paymentPendingMarkers)
}

func hasAnyToken(message string, set map[string]struct{}) bool {
	for _, tok := range Tokens(message) {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}
