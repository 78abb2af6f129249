package flow

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// PaymentConfirmedScore is added when the lead reports the transfer.
const PaymentConfirmedScore = 20

var paymentReceiptPhrases = []string{
	"comprobante", "ya pagué", "ya transferí", "ya deposité", "listo el pago", "pago realizado",
}

// handlePostPurchase handles messages while the payment receipt is awaited.
// Anything that does not look like a payment report falls through to the
// sales conversation.
func (p *Processor) handlePostPurchase(_ context.Context, t *turn) (bool, error) {
	if !isPaymentReport(t.text) {
		return false, nil
	}
	p.confirmPayment(t)
	return true, nil
}

func isPaymentReport(text string) bool {
	if intent.IsPaymentPending(text) {
		return false
	}
	if intent.IsShortAffirmation(text) || intent.ExtractConsentResponse(text) == intent.ConsentAccepted {
		return true
	}
	_, ok := intent.ContainsAny(text, paymentReceiptPhrases)
	return ok
}

// confirmPayment records the payment report once and raises a hand-off so an
// advisor verifies the transfer.
func (p *Processor) confirmPayment(t *turn) {
	lead := t.lead
	t.route = RoutePostPurchase
	if lead.PaymentConfirmed {
		lead.CompleteFlow()
		t.reply(msgPaymentRepeat)
		return
	}
	lead.MarkPaymentConfirmed(t.now)
	lead.SetStage(models.StagePostPurchase)
	lead.CompleteFlow()
	lead.AdjustLeadScore(PaymentConfirmedScore)
	t.handoff(handoff.KindPaymentConfirmation, "lead reported bank transfer")
	t.reply(paymentThanks(lead.Name))
}
