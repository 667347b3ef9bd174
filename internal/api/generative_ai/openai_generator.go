package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

const DefaultOpenAIModel = openai.GPT4oMini

const openAISystemPrompt = `You are a travel planner. Reply with a JSON object of the form
{"days":[{"title":string,"description":string,"visitingPlaces":[string],"hotel":{"name":string,"category":string},"vehicle":{"type":string}}]}
and nothing else. Each day lists exactly 3 specific famous tourist spots or activities.`

type OpenAIItineraryGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

var _ DayPlanGenerator = (*OpenAIItineraryGenerator)(nil)

func NewOpenAIItineraryGenerator(apiKey, model string, temperature float32, logger *slog.Logger) (*OpenAIItineraryGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return newOpenAIItineraryGeneratorWithConfig(openai.DefaultConfig(apiKey), model, temperature, logger), nil
}

func newOpenAIItineraryGeneratorWithConfig(cfg openai.ClientConfig, model string, temperature float32, logger *slog.Logger) *OpenAIItineraryGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIItineraryGenerator{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

func (g *OpenAIItineraryGenerator) GenerateDayPlans(ctx context.Context, destination string, dayCount, travellerCount int) ([]types.GeneratedDay, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "OpenAIGenerateDayPlans", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.Int("days", dayCount),
		attribute.String("model", g.model),
	))
	defer span.End()

	l := g.logger.With(slog.String("method", "GenerateDayPlans"), slog.String("provider", "openai"))

	if dayCount <= 0 {
		return []types.GeneratedDay{}, nil
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openAISystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: dayPlanPrompt(destination, dayCount, travellerCount)},
		},
	})
	if err != nil {
		l.ErrorContext(ctx, "OpenAI chat completion failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion failed")
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.RecordError(ErrEmptyResponse)
		span.SetStatus(codes.Error, "No choices")
		return nil, ErrEmptyResponse
	}

	days, err := decodeGeneratedDays(resp.Choices[0].Message.Content)
	if err != nil {
		l.ErrorContext(ctx, "Failed to parse OpenAI day plans", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Parse failed")
		return nil, err
	}

	l.DebugContext(ctx, "OpenAI day plans generated", slog.Int("count", len(days)))
	span.SetStatus(codes.Ok, "Day plans generated")
	return days, nil
}
