package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-travel-agent-crm/config"
)

// NewDayPlanGenerator builds the configured provider wrapped in a circuit
// breaker.
func NewDayPlanGenerator(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (DayPlanGenerator, error) {
	var inner DayPlanGenerator

	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		client, err := NewAIClient(ctx, cfg.GeminiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		inner = NewGeminiItineraryGenerator(client, cfg.Temperature, logger)
	case "openai":
		model := cfg.Model
		if strings.HasPrefix(model, "gemini") {
			model = ""
		}
		gen, err := NewOpenAIItineraryGenerator(cfg.OpenAIKey, model, cfg.Temperature, logger)
		if err != nil {
			return nil, err
		}
		inner = gen
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	logger.Info("Day plan generator configured", slog.String("provider", cfg.Provider), slog.String("model", cfg.Model))
	return NewBreakerGenerator(inner, cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout, logger), nil
}
