package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// DefaultModelID is used when no model is configured.
const DefaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

const anthropicVersion = "bedrock-2023-05-31"

// bedrockAPI is the slice of the Bedrock runtime client the assistant uses.
type bedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// SnapshotSource supplies the analytics snapshot used as chat context.
type SnapshotSource interface {
	Summary(ctx context.Context, userID string) (*domain.Snapshot, error)
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	Temperature      float64   `json:"temperature,omitempty"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Assistant is the Bedrock-backed chat collaborator.
type Assistant struct {
	client    bedrockAPI
	modelID   string
	snapshots SnapshotSource
}

// NewAssistant creates an assistant using the default AWS credential chain.
func NewAssistant(ctx context.Context, region, modelID string, snapshots SnapshotSource) (*Assistant, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewAssistantWithAPI(bedrockruntime.NewFromConfig(cfg), modelID, snapshots), nil
}

// NewAssistantWithAPI creates an assistant with an explicit Bedrock client.
func NewAssistantWithAPI(client bedrockAPI, modelID string, snapshots SnapshotSource) *Assistant {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &Assistant{client: client, modelID: modelID, snapshots: snapshots}
}

// Ask sends the prompt to the model together with the caller's current
// business metrics and returns the model's free-text reply.
func (a *Assistant) Ask(ctx context.Context, userID, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	enriched := prompt
	if snap, err := a.snapshots.Summary(ctx, userID); err == nil {
		enriched = metricsContext(snap) + "\n\nUser Question: " + prompt
	} else {
		// the assistant still works without metrics, just less grounded
		logger.Warn("chat context unavailable", "user_id", userID, "error", err.Error())
	}

	req := invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        2000,
		System:           systemPrompt,
		Temperature:      0.7,
		Messages: []message{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: enriched}},
		}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model: %w", err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}

	logger.Info("chat answered",
		"user_id", userID, "model", a.modelID,
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
	return text, nil
}

const systemPrompt = `You are a marketing strategist assisting a small-business owner inside their campaign dashboard. You have their current business metrics in each message.

Guidelines:
1. Be direct and actionable, give specific recommendations.
2. Ground every claim in the provided metrics; never invent numbers.
3. When asked about campaigns, consider channel (WhatsApp vs email), timing, and audience engagement.
4. Keep answers short enough to read in a dashboard side panel.`

func metricsContext(s *domain.Snapshot) string {
	return fmt.Sprintf(`Current business metrics (computed %s):
- Customers: %d
- Revenue: $%.2f
- Messaging cost: $%.2f
- ROI: %.1f%%
- Average campaign CTR: %.1f%%
- Customer sentiment: %d positive / %d neutral / %d negative`,
		s.ComputedAt.Format("2006-01-02 15:04"),
		s.TotalCustomers, s.TotalRevenue, s.TotalCost, s.ROI, s.AvgCTR,
		s.Sentiment.Positive, s.Sentiment.Neutral, s.Sentiment.Negative)
}
