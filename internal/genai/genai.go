// Package genai provides LLM-backed intent analysis and response generation using the OpenAI API.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/Brenda/internal/models"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// DefaultTemperature keeps replies close to the sales script.
const DefaultTemperature = 0.4

// Analyzer classifies a user message and drafts a reply.
type Analyzer interface {
	AnalyzeAndRespond(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error)
}

// chatService defines the minimal chat completions surface used by Client.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey      string
	Model       string
	Temperature float64
	BaseURL     string
	Logger      *slog.Logger
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) { o.Temperature = t }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opts) { o.Logger = l }
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat        chatService
	model       string
	temperature float64
	schema      any
	logger      *slog.Logger
}

// NewClient creates a client. The API key falls back to OPENAI_API_KEY.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)
	return newClient(&cli.Chat.Completions, cfg), nil
}

func newClient(chat chatService, cfg Opts) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		chat:        chat,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		schema:      GenerateSchema[analysisPayload](),
		logger:      cfg.Logger,
	}
}

// GenerateSchema reflects a JSON schema for T suitable for structured outputs.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// AnalyzeAndRespond asks the model for an intent classification, extracted
// profile data and a reply, in one structured call.
func (c *Client) AnalyzeAndRespond(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	userPrompt, err := buildUserPrompt(req)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "brenda_intent_analysis",
					Description: openai.String("Intent classification, extracted lead data and reply"),
					Schema:      c.schema,
				},
			},
		},
	}

	c.logger.Debug("Client.AnalyzeAndRespond: calling model", "model", c.model, "history", len(req.RecentMessages))
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		c.logger.Error("Client.AnalyzeAndRespond: completion failed", "error", err)
		return models.AnalysisResult{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return models.AnalysisResult{}, models.ErrNoChoicesReturned
	}
	return parsePayload(resp.Choices[0].Message.Content)
}

// analysisPayload is the structured output requested from the model.
type analysisPayload struct {
	Category      string           `json:"category" jsonschema:"enum=GREETING,enum=COURSE_INFORMATION,enum=PRICE_INQUIRY,enum=PURCHASE_INTENT,enum=PURCHASE_READY,enum=PAYMENT_CONFIRMATION,enum=FAQ,enum=ADVISOR_REQUEST,enum=OBJECTION_PRICE,enum=OBJECTION_TIME,enum=FREE_RESOURCES,enum=GENERAL_QUESTION,enum=OFF_TOPIC"`
	Confidence    float64          `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Reasoning     string           `json:"reasoning"`
	ExtractedInfo extractedPayload `json:"extracted_info"`
	Response      string           `json:"response" jsonschema:"description=Reply to send to the user in Spanish"`
}

type extractedPayload struct {
	Name            string         `json:"name"`
	Role            string         `json:"role"`
	Interests       []string       `json:"interests"`
	PainPoints      []string       `json:"pain_points"`
	AutomationNeeds []automationKV `json:"automation_needs"`
	InterestLevel   string         `json:"interest_level" jsonschema:"description=low or medium or high (empty when unknown)"`
	BuyerPersona    string         `json:"buyer_persona"`
}

type automationKV struct {
	Area string `json:"area"`
	Need string `json:"need"`
}

var knownCategories = map[models.IntentCategory]struct{}{
	models.CategoryGreeting: {}, models.CategoryCourseInformation: {}, models.CategoryPriceInquiry: {},
	models.CategoryPurchaseIntent: {}, models.CategoryPurchaseReady: {}, models.CategoryPaymentConfirmation: {},
	models.CategoryFAQ: {}, models.CategoryAdvisorRequest: {}, models.CategoryObjectionPrice: {},
	models.CategoryObjectionTime: {}, models.CategoryFreeResources: {}, models.CategoryGeneralQuestion: {},
	models.CategoryOffTopic: {},
}

func parsePayload(content string) (models.AnalysisResult, error) {
	var p analysisPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &p); err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to decode analysis: %w", err)
	}
	category := models.IntentCategory(strings.ToUpper(strings.TrimSpace(p.Category)))
	if _, ok := knownCategories[category]; !ok {
		category = models.CategoryGeneralQuestion
	}
	conf := p.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	needs := make(map[string]string, len(p.ExtractedInfo.AutomationNeeds))
	for _, kv := range p.ExtractedInfo.AutomationNeeds {
		needs[kv.Area] = kv.Need
	}
	return models.AnalysisResult{
		IntentAnalysis: models.IntentAnalysis{
			Category:        category,
			Confidence:      conf,
			DetectionMethod: models.DetectionLLM,
			Reasoning:       p.Reasoning,
		},
		ExtractedInfo: models.ExtractedInfo{
			Name:            p.ExtractedInfo.Name,
			Role:            p.ExtractedInfo.Role,
			Interests:       p.ExtractedInfo.Interests,
			PainPoints:      p.ExtractedInfo.PainPoints,
			AutomationNeeds: needs,
			InterestLevel:   p.ExtractedInfo.InterestLevel,
			BuyerPersona:    p.ExtractedInfo.BuyerPersona,
		},
		Response: strings.TrimSpace(p.Response),
	}, nil
}
