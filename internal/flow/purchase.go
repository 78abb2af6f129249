package flow

import (
	"context"
	"fmt"

	"github.com/BTreeMap/Brenda/internal/models"
)

// PurchaseBonusMinConfidence is the confidence a purchase intent needs to
// trigger the bonus and bank details.
const PurchaseBonusMinConfidence = 0.6

// ShouldActivatePurchaseBonus reports whether the analysis warrants sending the
// purchase bonus with bank details. Bank details are never sent twice.
func ShouldActivatePurchaseBonus(category models.IntentCategory, confidence float64, lead *models.LeadMemory) bool {
	return category.IsPurchaseCategory() && confidence >= PurchaseBonusMinConfidence && !lead.BankDataSent
}

// SelectBonus picks the bonus matching the lead's buyer persona, or the first one.
func SelectBonus(bonuses []models.Bonus, persona string) (models.Bonus, bool) {
	if len(bonuses) == 0 {
		return models.Bonus{}, false
	}
	for _, b := range bonuses {
		if b.MatchesPersona(persona) {
			return b, true
		}
	}
	return bonuses[0], true
}

// sendPurchaseBonus sends the bonus and the bank transfer details, then waits
// for the payment receipt.
func (p *Processor) sendPurchaseBonus(ctx context.Context, t *turn) error {
	lead := t.lead
	course, err := p.selectedCourse(ctx, lead)
	if err != nil {
		return err
	}
	bonuses, err := p.catalog.BonusesForCourse(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("failed to load bonuses for %q: %w", course.ID, err)
	}
	bonus, ok := SelectBonus(bonuses, lead.BuyerPersonaMatch)
	if ok {
		t.replyMedia(purchaseBonus(bonus, course), bonus.ResourceURL)
		lead.MarkPurchaseBonusSent(bonus.ID, t.now)
	} else {
		lead.MarkBankDataSent(t.now)
	}
	t.reply(bankDetails(p.bank, course))

	lead.SetStage(models.StagePurchaseIntent)
	lead.StartFlow(models.FlowPurchaseBonus, 1)
	lead.WaitFor(models.WaitingPaymentReceipt)
	t.logger.Info("Processor.sendPurchaseBonus: bonus and bank details sent", "courseID", course.ID, "bonusID", bonus.ID)
	return nil
}

// selectedCourse resolves the lead's course, defaulting to the first catalog
// course when none was chosen yet.
func (p *Processor) selectedCourse(ctx context.Context, lead *models.LeadMemory) (models.Course, error) {
	if lead.SelectedCourse != "" {
		c, err := p.catalog.CourseByID(ctx, lead.SelectedCourse)
		if err == nil {
			return c, nil
		}
		return models.Course{}, fmt.Errorf("failed to load selected course %q: %w", lead.SelectedCourse, err)
	}
	courses, err := p.catalog.AllCourses(ctx)
	if err != nil {
		return models.Course{}, fmt.Errorf("failed to load courses: %w", err)
	}
	if len(courses) == 0 {
		return models.Course{}, models.ErrCourseNotFound
	}
	return courses[0], nil
}
