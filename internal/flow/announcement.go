package flow

import (
	"context"
	"fmt"

	"github.com/BTreeMap/Brenda/internal/models"
)

// AnnouncementScore is added when a lead asks for a course announcement.
const AnnouncementScore = 5

// handleAnnouncement sends the course announcement once per lead. Greeting
// phrases only count outside course selection and when no course hashtag is
// present; an announcement code always counts.
func (p *Processor) handleAnnouncement(ctx context.Context, t *turn) (bool, error) {
	if t.lead.CourseAnnouncementSent {
		return false, nil
	}
	courseID, ok := p.matchers.Announcements.DetectCode(t.text)
	if !ok {
		if t.lead.WaitingForResponse == models.WaitingCourseSelection || p.matchers.Hashtags.Detect(t.text).HasCourse() {
			return false, nil
		}
		courseID, ok = p.matchers.Announcements.Detect(t.text)
	}
	if !ok {
		return false, nil
	}
	course, err := p.catalog.CourseByID(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to load announced course %q: %w", courseID, err)
	}

	lead := t.lead
	lead.SelectCourse(course.ID, t.now)
	lead.MarkCourseAnnouncementSent(course.ID, t.now)
	lead.AddInterest(course.Name)
	lead.AdjustLeadScore(AnnouncementScore)
	if lead.WaitingForResponse == models.WaitingCourseSelection {
		lead.CompleteFlow()
	}
	lead.SetStage(models.StageSalesAgent)
	t.reply(courseAnnouncement(course))
	return true, nil
}
