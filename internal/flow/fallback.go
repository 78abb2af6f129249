package flow

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/models"
)

// handleFallback always claims. Leads that consented but never gave a name
// are asked for it again.
func (p *Processor) handleFallback(_ context.Context, t *turn) (bool, error) {
	lead := t.lead
	if !lead.HasName() {
		lead.StartFlow(models.FlowPrivacy, 2)
		lead.WaitFor(models.WaitingUserName)
		t.reply(msgPrivacyAccepted)
		return true, nil
	}
	t.reply(fallbackGreeting(lead.Name))
	return true, nil
}
