package flow

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// startContact asks the lead to confirm the advisor referral.
func (p *Processor) startContact(t *turn, keyword string) {
	lead := t.lead
	lead.StartFlow(models.FlowContact, 1)
	lead.WaitFor(models.WaitingContactConfirmation)
	lead.RecordEvent(models.ActionAdvisorContactRequested, "advisor keyword "+keyword, t.now)
	t.route = RouteContact
	t.reply(msgContactAsk)
}

// handleContact processes the answer to the referral question. An unclear
// answer releases the flow and declines, so the message is handled as a
// normal sales message.
func (p *Processor) handleContact(_ context.Context, t *turn) (bool, error) {
	lead := t.lead
	switch intent.ExtractConsentResponse(t.text) {
	case intent.ConsentAccepted:
		lead.CompleteFlow()
		lead.MarkAdvisorContactRequested(t.now)
		lead.SetStage(models.StageAdvisorHandoff)
		t.handoff(handoff.KindAdvisorRequest, "lead confirmed advisor contact")
		t.reply(contactConfirmed(lead.Name))
		return true, nil
	case intent.ConsentRejected:
		lead.CompleteFlow()
		lead.SetStage(models.StageSalesAgent)
		t.reply(msgContactDeclined)
		return true, nil
	}
	lead.CompleteFlow()
	return false, nil
}
