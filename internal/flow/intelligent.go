package flow

import (
	"context"
	"strings"

	"github.com/BTreeMap/Brenda/internal/intent"
	"github.com/BTreeMap/Brenda/internal/metrics"
	"github.com/BTreeMap/Brenda/internal/models"
)

// RouteFAQ is reported when the intelligent route answered from the FAQ table.
const RouteFAQ = "faq"

// categoryScores are the lead score deltas applied per detected category.
var categoryScores = map[models.IntentCategory]int{
	models.CategoryPurchaseReady:       20,
	models.CategoryPurchaseIntent:      15,
	models.CategoryPaymentConfirmation: 20,
	models.CategoryAdvisorRequest:      10,
	models.CategoryPriceInquiry:        5,
	models.CategoryCourseInformation:   5,
	models.CategoryFAQ:                 3,
	models.CategoryFreeResources:       2,
	models.CategoryGeneralQuestion:     1,
	models.CategoryObjectionPrice:      -5,
	models.CategoryObjectionTime:       -5,
	models.CategoryOffTopic:            -2,
}

// handleIntelligent classifies free text and answers it. It declines only
// when neither the analyzer nor the keyword classifier produced a category.
func (p *Processor) handleIntelligent(ctx context.Context, t *turn) (bool, error) {
	lead := t.lead
	if analysis, ok := intent.DetectPaymentConfirmation(t.text, lead.BankDataSent); ok {
		p.metrics.RecordFastRuleHit()
		t.logger.Info("Processor.handleIntelligent: payment confirmed by fast rule", "confidence", analysis.Confidence)
		p.confirmPayment(t)
		return true, nil
	}

	result, ok := p.analyze(ctx, t)
	if !ok {
		return false, nil
	}
	p.applyExtractedInfo(t, result.ExtractedInfo)

	category := result.IntentAnalysis.Category
	lead.AdjustLeadScore(categoryScores[category])
	if category.IsPurchaseCategory() {
		lead.AddBuyingSignal(strings.ToLower(string(category)))
	}
	if lead.Stage == models.StageFirstContact || lead.Stage == models.StageCourseSelection {
		lead.SetStage(models.StageSalesAgent)
	}
	t.logger.Debug("Processor.handleIntelligent: message classified",
		"category", category, "confidence", result.IntentAnalysis.Confidence, "method", result.IntentAnalysis.DetectionMethod)

	switch {
	case category == models.CategoryPaymentConfirmation && lead.BankDataSent && !intent.IsPaymentPending(t.text):
		p.confirmPayment(t)
	case category == models.CategoryAdvisorRequest:
		keyword := "analyzer"
		if ref, ok := intent.DetectAdvisorRequest(t.text); ok {
			keyword = ref.Keyword
		}
		p.startContact(t, keyword)
	case category == models.CategoryFAQ:
		if m, ok := p.matchers.FAQ.Match(t.text); ok {
			t.route = RouteFAQ
			p.answerFAQ(t, m)
		} else {
			t.reply(responseOrTemplate(result, lead.Name))
		}
	case category.IsPurchaseCategory():
		p.handlePurchase(ctx, t, result)
	default:
		t.reply(responseOrTemplate(result, lead.Name))
	}
	return true, nil
}

func (p *Processor) handlePurchase(ctx context.Context, t *turn, result models.AnalysisResult) {
	lead := t.lead
	analysis := result.IntentAnalysis
	switch {
	case ShouldActivatePurchaseBonus(analysis.Category, analysis.Confidence, lead):
		if err := p.sendPurchaseBonus(ctx, t); err != nil {
			t.logger.Error("Processor.handlePurchase: failed to send purchase bonus", "error", err)
			t.reply(responseOrTemplate(result, lead.Name))
		}
	case lead.BankDataSent:
		t.reply(msgBankAlreadySent)
	default:
		t.reply(responseOrTemplate(result, lead.Name))
	}
}

// analyze asks the analyzer and falls back to local keyword rules when it is
// missing or fails.
func (p *Processor) analyze(ctx context.Context, t *turn) (models.AnalysisResult, bool) {
	lead := t.lead
	if p.analyzer != nil {
		req := models.AnalysisRequest{
			UserMessage:    t.text,
			Memory:         lead,
			RecentMessages: lead.RecentHistory(models.RecentHistoryWindow),
			ContextInfo: map[string]any{
				"selected_course": lead.SelectedCourse,
				"stage":           string(lead.Stage),
			},
		}
		res, err := p.analyzer.AnalyzeAndRespond(ctx, req)
		if err == nil {
			p.metrics.RecordLLMCall(metrics.LLMOutcomeSuccess)
			return res, true
		}
		p.metrics.RecordLLMCall(metrics.LLMOutcomeError)
		t.logger.Warn("Processor.analyze: analyzer failed, using keyword fallback", "error", err)
	}

	analysis, ok := p.matchers.Keywords.Classify(t.text)
	if !ok {
		return models.AnalysisResult{}, false
	}
	p.metrics.RecordLLMCall(metrics.LLMOutcomeFallback)
	return models.AnalysisResult{IntentAnalysis: analysis}, true
}

func (p *Processor) applyExtractedInfo(t *turn, info models.ExtractedInfo) {
	if info.Role != "" && !intent.IsProfessionalRole(info.Role) {
		t.logger.Debug("Processor.applyExtractedInfo: ignoring unrecognized role", "role", info.Role)
		info.Role = ""
	}
	if info.Name != "" {
		if name, ok := intent.ExtractUserName(info.Name); ok {
			info.Name = name
		} else {
			info.Name = ""
		}
	}
	t.lead.ApplyExtractedInfo(info)
}

func responseOrTemplate(result models.AnalysisResult, name string) string {
	if r := strings.TrimSpace(result.Response); r != "" {
		return r
	}
	return categoryReply(result.IntentAnalysis.Category, name)
}
