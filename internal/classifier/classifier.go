package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"dealflow/server/config"
	"dealflow/server/internal/models"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownDealType = errors.New("unknown deal type")
	ErrEmptyResponse   = errors.New("classifier returned no text")
)

// MessageClient is the slice of the Anthropic SDK the classifier needs.
// *sdk.MessageService satisfies it.
type MessageClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type Options struct {
	Model     string
	MaxTokens int64
	// FallbackDealType replaces deal types outside the supported list.
	// Empty means such classifications fail with ErrUnknownDealType.
	FallbackDealType string
}

type Classifier struct {
	client MessageClient
	opts   Options
	logger *logrus.Logger
}

// New builds a classifier backed by the Anthropic API.
func New(apiKey string, opts Options, logger *logrus.Logger) *Classifier {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewWithClient(&client.Messages, opts, logger)
}

func NewWithClient(client MessageClient, opts Options, logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &Classifier{client: client, opts: opts, logger: logger}
}

// Classify asks the model for the deal type and the structured property
// details of one email.
func (c *Classifier) Classify(ctx context.Context, email *models.Email) (*models.Classification, error) {
	temperature := 0.0
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.opts.Model),
		MaxTokens: c.opts.MaxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt()},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt(email))),
		},
		Temperature: sdk.Float(temperature),
	}

	msg, err := c.client.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to classify email %s: %w", email.ID, err)
	}

	text := firstText(msg)
	if text == "" {
		return nil, fmt.Errorf("failed to classify email %s: %w", email.ID, ErrEmptyResponse)
	}

	classification, err := c.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to classify email %s: %w", email.ID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"email_id":   email.ID,
		"deal_type":  classification.DealType,
		"confidence": classification.Confidence,
	}).Info("Classified email")
	return classification, nil
}

// Parse turns a raw model reply into a classification with a canonical
// deal type and a confidence within 0-100.
func (c *Classifier) Parse(text string) (*models.Classification, error) {
	repaired, err := jsonrepair.RepairJSON(stripFences(text))
	if err != nil {
		return nil, fmt.Errorf("failed to repair classifier JSON: %w", err)
	}

	cleaned, err := cleanNumbers(repaired)
	if err != nil {
		return nil, fmt.Errorf("failed to decode classifier JSON: %w", err)
	}

	var classification models.Classification
	if err := json.Unmarshal([]byte(cleaned), &classification); err != nil {
		return nil, fmt.Errorf("failed to decode classifier JSON: %w", err)
	}

	if dt := config.GetDealTypeByName(classification.DealType); dt != nil {
		classification.DealType = dt.Name
	} else if fallback := config.GetDealTypeByName(c.opts.FallbackDealType); fallback != nil {
		c.logger.WithFields(logrus.Fields{
			"deal_type": classification.DealType,
			"fallback":  fallback.Name,
		}).Warn("Unknown deal type, using fallback")
		classification.DealType = fallback.Name
	} else {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDealType, classification.DealType)
	}

	switch {
	case classification.Confidence < 0:
		classification.Confidence = 0
	case classification.Confidence > 100:
		classification.Confidence = 100
	}
	return &classification, nil
}

func firstText(msg *sdk.Message) string {
	if msg == nil {
		return ""
	}
	for _, block := range msg.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text
		}
	}
	return ""
}

// stripFences removes a surrounding ``` or ```json fence
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func userPrompt(email *models.Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s\n\n", email.Sender)
	b.WriteString(email.Body)
	return b.String()
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You analyse UK property deal emails sent by agents and landowners.\n")
	b.WriteString("Classify the deal as exactly one of these types:\n")
	for _, name := range config.GetDealTypeNames() {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nReply with a single JSON object and nothing else, following this schema. ")
	b.WriteString("Use null for anything the email does not state; never guess numbers. ")
	b.WriteString("Percentages are numbers out of 100. Money is in pounds without symbols.\n\n")
	b.WriteString(responseSchema)
	return b.String()
}

const responseSchema = `{
  "deal_type": "string, one of the types above",
  "confidence": "integer 0-100",
  "reasoning": "string",
  "key_indicators": ["string"],
  "property_details": {
    "site_address": "string|null",
    "asking_price": "number|null",
    "reduction_to_achieve_target_profit_percentage_gdv": "number|null",
    "property_type": "string|null",
    "planning_status": "string|null",
    "development_name": "string|null",
    "floors": [
      {
        "floor_type": "string, e.g. ground, first, second",
        "accommodation_types": [
          {
            "type": "string, e.g. studio, 1-bed, 2-bed, 3-bed",
            "units": "integer|null",
            "area_m2": "number|null",
            "area_sqft": "number|null",
            "price_per_unit": "number|null",
            "rental_value": "number|null",
            "price_per_sqft": "number|null",
            "price_per_sqm": "number|null",
            "affordable_housing": "boolean"
          }
        ]
      }
    ],
    "total_units": "integer|null",
    "total_area_m2": "number|null",
    "total_area_sqft": "number|null",
    "number_of_floors": "integer|null",
    "construction_type": "string|null",
    "gdv": "number|null",
    "avg_price_per_sqft": "number|null",
    "avg_price_per_sqm": "number|null",
    "market_comparables": ["string"],
    "costs_and_rates": {
      "build_cost_per_sqft": "number|null",
      "build_cost_per_sqm": "number|null",
      "total_build_cost": "number|null",
      "professional_fees_percentage": "number|null",
      "contingency_percentage": "number|null",
      "finance_costs_percentage": "number|null",
      "target_profit_margin": "number|null"
    },
    "timeline": {
      "total_development_duration_months": "integer|null",
      "construction_period_months": "integer|null",
      "planning_timeframe_months": "integer|null",
      "sales_period_months": "integer|null"
    },
    "funding_details": {
      "loan_amount": "number|null",
      "loan_to_value": "number|null",
      "loan_to_cost": "number|null",
      "interest_rate": "number|null",
      "equity_required": "number|null",
      "funding_structure": "string|null"
    },
    "special_considerations": ["string"],
    "missing_information": ["string"]
  }
}`
