package flow

import (
	"context"

	"github.com/BTreeMap/Brenda/internal/content"
	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/models"
)

// CourseSelectionScore is added when the lead picks a course from the menu.
const CourseSelectionScore = 10

// handleWelcome presents the course menu and parses the answer.
func (p *Processor) handleWelcome(ctx context.Context, t *turn) (bool, error) {
	if t.lead.WaitingForResponse != models.WaitingCourseSelection {
		p.startCourseSelection(ctx, t)
		return true, nil
	}

	presented := p.presentedCourses(ctx, t)
	course, strategy, ok := intent.ParseCourseSelection(t.text, presented)
	if !ok {
		course, ok = p.searchPresented(ctx, t, presented)
		strategy = intent.StrategyCatalogSearch
	}
	if !ok {
		t.reply(msgCourseReprompt + "\n\n" + courseList(presented))
		return true, nil
	}

	lead := t.lead
	lead.SelectCourse(course.ID, t.now)
	lead.AdjustLeadScore(CourseSelectionScore)
	lead.AddInterest(course.Name)
	lead.CompleteFlow()
	lead.SetStage(models.StageSalesAgent)
	lead.RecordEvent(models.ActionCourseSelected, "course "+course.ID+" by "+strategy, t.now)
	t.logger.Info("Processor.handleWelcome: course selected", "courseID", course.ID, "strategy", strategy)
	t.reply(courseSelected(course))
	return true, nil
}

// startCourseSelection sends the menu and waits for the choice.
func (p *Processor) startCourseSelection(ctx context.Context, t *turn) {
	courses := p.allCourses(ctx, t)
	lead := t.lead
	lead.SetAvailableCourses(content.CourseIDs(courses))
	lead.StartFlow(models.FlowCourseSelection, 1)
	// The stage stays sales_agent; the waiting tag alone routes the answer.
	lead.WaitFor(models.WaitingCourseSelection)
	t.reply(courseMenu(lead.Name, courses))
}

// searchPresented runs a catalog keyword search for each word of the answer.
// It selects only when every hit among the presented courses is the same one.
func (p *Processor) searchPresented(ctx context.Context, t *turn, presented []models.Course) (models.Course, bool) {
	var found models.Course
	for _, term := range intent.SearchTerms(t.text) {
		hits, err := p.catalog.SearchCourses(ctx, term)
		if err != nil {
			t.logger.Warn("Processor.searchPresented: catalog search failed", "term", term, "error", err)
			return models.Course{}, false
		}
		for _, c := range content.FindCourses(presented, content.CourseIDs(hits)) {
			if found.ID != "" && found.ID != c.ID {
				return models.Course{}, false
			}
			found = c
		}
	}
	return found, found.ID != ""
}

// presentedCourses resolves the menu shown earlier, in the same order, so a
// numeric answer refers to what the user saw.
func (p *Processor) presentedCourses(ctx context.Context, t *turn) []models.Course {
	all := p.allCourses(ctx, t)
	if ids := t.lead.AvailableCourses; len(ids) > 0 {
		if found := content.FindCourses(all, ids); len(found) > 0 {
			return found
		}
	}
	return all
}

func (p *Processor) allCourses(ctx context.Context, t *turn) []models.Course {
	courses, err := p.catalog.AllCourses(ctx)
	if err != nil || len(courses) == 0 {
		t.logger.Warn("Processor.allCourses: catalog unavailable, using built-in courses", "error", err)
		return content.DefaultCourses()
	}
	return courses
}
