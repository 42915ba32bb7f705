package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pscheid92/postpulse/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	classifyTimeout = 30 * time.Second

	classifySystemPrompt = `You are a sentiment classifier. Classify the sentiment of the user's text.
Respond with ONLY a JSON object, no prose, no code fences:
{"label": "positive" or "negative", "confidence": <number between 0 and 1>}`
)

// OpenAIClassifier implements domain.ClassifierModel against an
// OpenAI-compatible chat-completions endpoint.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

// ClassifierConfig configures the inference endpoint. BaseURL is optional
// and allows pointing at any OpenAI-compatible server.
type ClassifierConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIClassifier(cfg ClassifierConfig) *OpenAIClassifier {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	if cfg.Model == "" {
		panic("classifier model must be specified")
	}
	return &OpenAIClassifier{client: c, model: cfg.Model}
}

type classifyReply struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify scores normalized text, returning a label from the fixed set and
// a confidence in [0, 1]. Any transport, parse, or validation failure is a
// model error for this post only.
func (o *OpenAIClassifier) Classify(ctx context.Context, text string) (domain.ClassifierResult, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return domain.ClassifierResult{}, fmt.Errorf("classifier request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.ClassifierResult{}, fmt.Errorf("classifier returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply classifyReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return domain.ClassifierResult{}, fmt.Errorf("classifier returned malformed reply: %w", err)
	}

	switch reply.Label {
	case domain.LabelPositive, domain.LabelNegative, domain.LabelNeutral:
	default:
		return domain.ClassifierResult{}, fmt.Errorf("%w: %q", domain.ErrInvalidLabel, reply.Label)
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return domain.ClassifierResult{}, fmt.Errorf("classifier confidence %v out of range", reply.Confidence)
	}

	return domain.ClassifierResult{Label: reply.Label, Confidence: reply.Confidence}, nil
}
