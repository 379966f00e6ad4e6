package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"billease/internal/logger"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// InsightsInput carries the structured business data fed to the model, each
// field as serialized JSON.
type InsightsInput struct {
	SalesData       string `json:"sales_data"`
	InventoryLevels string `json:"inventory_levels"`
	MarketTrends    string `json:"market_trends"`
	UserProfile     string `json:"user_profile"`
}

type InsightsService interface {
	GenerateInsights(ctx context.Context, input *InsightsInput) (string, error)
}

// chatCompleter is the slice of the OpenAI client the service uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type insightsService struct {
	client chatCompleter
	model  string
	log    zerolog.Logger
}

// NewInsightsService creates an insights service backed by the OpenAI chat
// completions API.
func NewInsightsService(client *openai.Client, model string) InsightsService {
	return newInsightsServiceWithDeps(client, model)
}

func newInsightsServiceWithDeps(client chatCompleter, model string) InsightsService {
	return &insightsService{
		client: client,
		model:  model,
		log:    logger.WithComponent("insights"),
	}
}

const insightsSystemPrompt = "You are a business consultant providing actionable advice to small business owners in India. " +
	"Analyze the provided business data and give specific, practical recommendations to optimize operations and increase profitability. " +
	"Consider the user's profile when providing recommendations. " +
	"Focus on sales optimization, inventory management, market opportunities, cost reduction, and customer engagement. " +
	"Format your response as a concise paragraph with clear and actionable recommendations."

func buildInsightsPrompt(input *InsightsInput) string {
	var b strings.Builder
	b.WriteString("Sales Data: ")
	b.WriteString(input.SalesData)
	b.WriteString("\nInventory Levels: ")
	b.WriteString(input.InventoryLevels)
	b.WriteString("\nMarket Trends: ")
	b.WriteString(input.MarketTrends)
	b.WriteString("\nUser Profile: ")
	b.WriteString(input.UserProfile)
	return b.String()
}

// GenerateInsights asks the model for recommendations over the supplied
// business data. Failures surface as errors; no fallback text is invented.
func (s *insightsService) GenerateInsights(ctx context.Context, input *InsightsInput) (string, error) {
	if input.SalesData == "" && input.InventoryLevels == "" && input.MarketTrends == "" && input.UserProfile == "" {
		return "", errors.New("insights input is empty")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: insightsSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildInsightsPrompt(input)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	insights := strings.TrimSpace(resp.Choices[0].Message.Content)
	if insights == "" {
		return "", errors.New("model returned empty insights")
	}

	s.log.Debug().Int("length", len(insights)).Msg("Generated business insights")

	return insights, nil
}
