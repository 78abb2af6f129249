package models

// IntentCategory is the classification label of a free-text user message.
type IntentCategory string

const (
	CategoryGreeting            IntentCategory = "GREETING"
	CategoryCourseInformation   IntentCategory = "COURSE_INFORMATION"
	CategoryPriceInquiry        IntentCategory = "PRICE_INQUIRY"
	CategoryPurchaseIntent      IntentCategory = "PURCHASE_INTENT"
	CategoryPurchaseReady       IntentCategory = "PURCHASE_READY"
	CategoryPaymentConfirmation IntentCategory = "PAYMENT_CONFIRMATION"
	CategoryFAQ                 IntentCategory = "FAQ"
	CategoryAdvisorRequest      IntentCategory = "ADVISOR_REQUEST"
	CategoryObjectionPrice      IntentCategory = "OBJECTION_PRICE"
	CategoryObjectionTime       IntentCategory = "OBJECTION_TIME"
	CategoryFreeResources       IntentCategory = "FREE_RESOURCES"
	CategoryGeneralQuestion     IntentCategory = "GENERAL_QUESTION"
	CategoryOffTopic            IntentCategory = "OFF_TOPIC"
)

// Detection methods reported in IntentAnalysis.
const (
	DetectionFastRule = "fast_rule"
	DetectionLLM      = "llm"
	DetectionKeywords = "keyword_fallback"
)

// IsPurchaseCategory reports whether the category signals intent to buy.
func (c IntentCategory) IsPurchaseCategory() bool {
	switch c {
	case CategoryPurchaseIntent, CategoryPurchaseReady, CategoryPriceInquiry:
		return true
	}
	return false
}

// IntentAnalysis is the classification part of an analyzer result.
type IntentAnalysis struct {
	Category        IntentCategory `json:"category"`
	Confidence      float64        `json:"confidence"`
	DetectionMethod string         `json:"detection_method,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
}

// AnalysisRequest is the input of an intent analyzer.
type AnalysisRequest struct {
	UserMessage    string         `json:"user_message"`
	Memory         *LeadMemory    `json:"-"`
	RecentMessages []HistoryEntry `json:"recent_messages"`
	ContextInfo    map[string]any `json:"context_info,omitempty"`
}

// AnalysisResult is the output of an intent analyzer.
type AnalysisResult struct {
	IntentAnalysis IntentAnalysis `json:"intent_analysis"`
	ExtractedInfo  ExtractedInfo  `json:"extracted_info"`
	Response       string         `json:"response"`
}
