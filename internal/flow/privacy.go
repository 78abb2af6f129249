package flow

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// handlePrivacy owns the conversation until consent and a name are collected.
// It claims every message it is offered.
func (p *Processor) handlePrivacy(ctx context.Context, t *turn) (bool, error) {
	lead := t.lead
	switch lead.WaitingForResponse {
	case models.WaitingPrivacyAcceptance:
		return p.handleConsentReply(t), nil
	case models.WaitingUserName:
		return p.handleNameReply(ctx, t), nil
	}

	lead.RequestPrivacy()
	lead.RecordEvent(models.ActionPrivacyRequested, "consent request sent", t.now)
	if m := p.matchers.Hashtags.Detect(t.text); m.HasCourse() {
		lead.PendingCourseID = m.CourseID
		if m.HasCampaign() {
			lead.AddBuyingSignal("campaign:" + m.CampaignTag)
		}
	}
	t.reply(privacyRequest(lead.WhatsAppDisplayName))
	t.logger.Debug("Processor.handlePrivacy: consent requested", "pendingCourse", lead.PendingCourseID)
	return true, nil
}

func (p *Processor) handleConsentReply(t *turn) bool {
	lead := t.lead
	switch intent.ExtractConsentResponse(t.text) {
	case intent.ConsentAccepted:
		lead.AcceptPrivacy()
		lead.RecordEvent(models.ActionPrivacyAccepted, "user accepted privacy notice", t.now)
		t.reply(msgPrivacyAccepted)
	case intent.ConsentRejected:
		lead.RejectPrivacy()
		lead.RecordEvent(models.ActionPrivacyRejected, "user rejected privacy notice", t.now)
		t.reply(msgPrivacyRejected)
	default:
		t.reply(msgPrivacyReprompt)
	}
	return true
}

func (p *Processor) handleNameReply(ctx context.Context, t *turn) bool {
	lead := t.lead
	name, ok := intent.ExtractUserName(t.text)
	if !ok {
		t.reply(msgNameReminder)
		return true
	}
	lead.SetName(name)
	lead.CompleteFlow()
	lead.SetStage(models.StageSalesAgent)
	lead.RecordEvent(models.ActionNameCollected, "name collected", t.now)

	if pending := lead.PendingCourseID; pending != "" {
		course, err := p.catalog.CourseByID(ctx, pending)
		if err != nil {
			t.logger.Warn("Processor.handleNameReply: pending course unavailable", "courseID", pending, "error", err)
			lead.PendingCourseID = ""
		} else {
			lead.SelectCourse(course.ID, t.now)
			lead.AddInterest(course.Name)
			lead.RecordEvent(models.ActionCourseSelected, "course "+course.ID+" from ad", t.now)
			t.reply(adWelcome(name, course))
			return true
		}
	}
	t.reply(nameGreeting(name))
	p.startCourseSelection(ctx, t)
	return true
}

// handleRejected answers leads who declined the privacy notice. Only an
// explicit acceptance reopens the conversation.
func (p *Processor) handleRejected(_ context.Context, t *turn) (bool, error) {
	if intent.ExtractConsentResponse(t.text) == intent.ConsentAccepted {
		t.lead.AcceptPrivacy()
		t.lead.RecordEvent(models.ActionPrivacyAccepted, "user accepted privacy notice after rejecting", t.now)
		t.reply(msgPrivacyAccepted)
		return true, nil
	}
	t.reply(msgRejectedRemind)
	return true, nil
}
