package generativeAI

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

// DayPlanGenerator produces up to dayCount partial day plans for a
// destination. Implementations may return fewer or more days than asked;
// callers trim and backfill.
type DayPlanGenerator interface {
	GenerateDayPlans(ctx context.Context, destination string, dayCount, travellerCount int) ([]types.GeneratedDay, error)
}

var dayPlanSchema = &genai.Schema{
	Type:        genai.TypeArray,
	Description: "An array of travel itinerary days",
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {
				Type:        genai.TypeString,
				Description: "The title of the day's itinerary, e.g. 'Arrival & Sightseeing'",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "A 1-2 sentence description of what the travellers will do.",
			},
			"visitingPlaces": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "List of exactly 3 specific famous tourist spots or activities for this day.",
			},
			"hotel": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString, Description: "Name of the hotel."},
					"category": {Type: genai.TypeString, Description: "Star category, e.g. '4 Star'"},
				},
				Required: []string{"name", "category"},
			},
			"vehicle": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {Type: genai.TypeString, Description: "Vehicle type, e.g. 'Sedan' or 'SUV'"},
				},
				Required: []string{"type"},
			},
		},
		Required: []string{"title", "description", "visitingPlaces", "hotel", "vehicle"},
	},
}

func dayPlanPrompt(destination string, dayCount, travellerCount int) string {
	return fmt.Sprintf(
		"Generate a realistic %d-day travel itinerary for %s for a group of %d travellers. "+
			"Ensure it includes the most famous and highly visited tourist spots.",
		dayCount, destination, travellerCount,
	)
}

type GeminiItineraryGenerator struct {
	client      *AIClient
	temperature float32
	logger      *slog.Logger
}

var _ DayPlanGenerator = (*GeminiItineraryGenerator)(nil)

func NewGeminiItineraryGenerator(client *AIClient, temperature float32, logger *slog.Logger) *GeminiItineraryGenerator {
	return &GeminiItineraryGenerator{client: client, temperature: temperature, logger: logger}
}

func (g *GeminiItineraryGenerator) GenerateDayPlans(ctx context.Context, destination string, dayCount, travellerCount int) ([]types.GeneratedDay, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GeminiGenerateDayPlans", trace.WithAttributes(
		attribute.String("destination", destination),
		attribute.Int("days", dayCount),
		attribute.Int("travellers", travellerCount),
	))
	defer span.End()

	l := g.logger.With(slog.String("method", "GenerateDayPlans"), slog.String("provider", "gemini"))

	if dayCount <= 0 {
		return []types.GeneratedDay{}, nil
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   dayPlanSchema,
		Temperature:      genai.Ptr[float32](g.temperature),
	}

	text, err := g.client.GenerateContent(ctx, dayPlanPrompt(destination, dayCount, travellerCount), config)
	if err != nil {
		l.ErrorContext(ctx, "Gemini day plan generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		return nil, err
	}

	days, err := decodeGeneratedDays(text)
	if err != nil {
		l.ErrorContext(ctx, "Failed to parse Gemini day plans", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Parse failed")
		return nil, err
	}

	l.DebugContext(ctx, "Gemini day plans generated", slog.Int("count", len(days)))
	span.SetAttributes(attribute.Int("days.generated", len(days)))
	span.SetStatus(codes.Ok, "Day plans generated")
	return days, nil
}
