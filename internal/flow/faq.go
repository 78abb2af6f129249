package flow

import (
	"github.com/BTreeMap/Brenda/internal/handoff"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// answerFAQ replies with the canned answer. Escalation entries also tell the
// user a specialist will follow up and raise a hand-off.
func (p *Processor) answerFAQ(t *turn, m intent.FAQMatch) {
	answer := m.Entry.Answer
	if m.Entry.EscalationNeeded {
		answer += "\n\n" + msgEscalationNotice
		t.handoff(handoff.KindFAQEscalation, "faq "+m.Entry.Category)
	}
	t.lead.RecordEvent(models.ActionFAQAnswered, "faq "+m.Entry.Category, t.now)
	t.reply(answer)
}
