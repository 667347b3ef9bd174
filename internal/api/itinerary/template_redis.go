package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

const redisTemplatePrefix = "itinerary_template"

var _ TemplateStore = (*RedisTemplateStore)(nil)

// RedisTemplateStore keeps templates under itinerary_template:{key}:{days}
// without expiry. SETNX gives first-writer-wins.
type RedisTemplateStore struct {
	client redis.Cmdable
	logger *slog.Logger
}

func NewRedisTemplateStore(client redis.Cmdable, logger *slog.Logger) *RedisTemplateStore {
	return &RedisTemplateStore{client: client, logger: logger}
}

func redisTemplateKey(key string, days int) string {
	return fmt.Sprintf("%s:%s:%d", redisTemplatePrefix, key, days)
}

func (s *RedisTemplateStore) GetTemplate(ctx context.Context, key string, days int) (*types.ItineraryBody, bool, error) {
	ctx, span := otel.Tracer("TemplateRedis").Start(ctx, "GetTemplate", trace.WithAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("destination", key),
		attribute.Int("days", days),
	))
	defer span.End()

	raw, err := s.client.Get(ctx, redisTemplateKey(key, days)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetStatus(codes.Ok, "Template not found")
		return nil, false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read template from redis", slog.Any("error", err), slog.String("destination", key))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Redis get failed")
		return nil, false, fmt.Errorf("failed to read template from redis: %w", err)
	}

	body, err := decodeItineraryBody(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Decode failed")
		return nil, false, err
	}
	span.SetStatus(codes.Ok, "Template found")
	return body, true, nil
}

func (s *RedisTemplateStore) PutTemplateIfAbsent(ctx context.Context, key string, days int, body types.ItineraryBody) (bool, error) {
	ctx, span := otel.Tracer("TemplateRedis").Start(ctx, "PutTemplateIfAbsent", trace.WithAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("destination", key),
		attribute.Int("days", days),
	))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Encode failed")
		return false, fmt.Errorf("failed to encode itinerary template: %w", err)
	}

	inserted, err := s.client.SetNX(ctx, redisTemplateKey(key, days), payload, 0).Result()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to write template to redis", slog.Any("error", err), slog.String("destination", key))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Redis setnx failed")
		return false, fmt.Errorf("failed to write template to redis: %w", err)
	}

	span.SetAttributes(attribute.Bool("inserted", inserted))
	span.SetStatus(codes.Ok, "Template write finished")
	return inserted, nil
}
