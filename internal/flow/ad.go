package flow

import (
	"context"
	"fmt"

	"github.com/BTreeMap/Brenda/internal/models"
)

// AdCampaignScore is added when a lead arrives through an ad hashtag.
const AdCampaignScore = 15

// handleAd claims messages carrying a course hashtag. Leads reach it only after
// consent, so a course hashtag alone is enough; a campaign hashtag is recorded
// as a buying signal when present.
func (p *Processor) handleAd(ctx context.Context, t *turn) (bool, error) {
	m := p.matchers.Hashtags.Detect(t.text)
	if !m.HasCourse() {
		return false, nil
	}
	if !m.IsAdEntry() && !t.lead.PrivacyAccepted {
		return false, nil
	}
	course, err := p.catalog.CourseByID(ctx, m.CourseID)
	if err != nil {
		return false, fmt.Errorf("failed to load ad course %q: %w", m.CourseID, err)
	}

	lead := t.lead
	repeat := lead.SelectedCourse == course.ID
	lead.SelectCourse(course.ID, t.now)
	lead.AddInterest(course.Name)
	if !repeat {
		lead.AdjustLeadScore(AdCampaignScore)
	}
	desc := "course " + course.ID
	if m.HasCampaign() {
		lead.AddBuyingSignal("campaign:" + m.CampaignTag)
		desc += " campaign " + m.CampaignTag
	}
	lead.RecordEvent(models.ActionAdCampaignDetected, desc, t.now)
	if lead.WaitingForResponse == models.WaitingCourseSelection {
		lead.CompleteFlow()
	}
	lead.SetStage(models.StageSalesAgent)
	t.reply(adWelcome(lead.Name, course))
	return true, nil
}
