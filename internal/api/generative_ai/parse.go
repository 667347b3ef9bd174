package generativeAI

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

// cleanJSONResponse strips markdown code fences and surrounding prose from a
// model reply, leaving the outermost JSON array or object.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}

	start := strings.IndexAny(response, "[{")
	if start < 0 {
		return response
	}
	closer := "]"
	if response[start] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(response, closer)
	if end < start {
		return response[start:]
	}
	return response[start : end+1]
}

// decodeGeneratedDays accepts either a bare array of days or an object with
// a "days" array.
func decodeGeneratedDays(raw string) ([]types.GeneratedDay, error) {
	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	if cleaned[0] == '[' {
		var days []types.GeneratedDay
		if err := json.Unmarshal([]byte(cleaned), &days); err != nil {
			return nil, fmt.Errorf("failed to parse day plans: %w", err)
		}
		return days, nil
	}

	var wrapped struct {
		Days []types.GeneratedDay `json:"days"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse day plans: %w", err)
	}
	if wrapped.Days == nil {
		return nil, fmt.Errorf("failed to parse day plans: %w", ErrEmptyResponse)
	}
	return wrapped.Days, nil
}
