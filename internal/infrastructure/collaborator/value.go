package collaborator

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"syncshield/internal/domain/entity"
	"syncshield/internal/domain/value"
)

type userValueResponse struct {
	Value *float64 `json:"value"`
}

// ValueService talks to the value prediction service.
type ValueService struct {
	client *Client
}

func NewValueService(client *Client) *ValueService {
	return &ValueService{client: client}
}

func (s *ValueService) PredictValue(ctx context.Context, userID string) (float64, error) {
	var resp userValueResponse

	if err := s.client.get(ctx, "/v1/users/"+url.PathEscape(userID)+"/value", &resp); err != nil {
		return 0, fmt.Errorf("client.get: %w", err)
	}

	if resp.Value == nil || math.IsNaN(*resp.Value) {
		return 0, fmt.Errorf("value missing for user %q", userID)
	}

	return *resp.Value, nil
}

func (s *ValueService) PredictPlatformValue(
	ctx context.Context,
	platform value.Platform,
	lookbackDays int,
) (entity.PlatformValue, error) {
	query := url.Values{"lookbackDays": []string{strconv.Itoa(lookbackDays)}}
	path := "/v1/platforms/" + url.PathEscape(platform.String()) + "/value?" + query.Encode()

	var resp entity.PlatformValue

	if err := s.client.get(ctx, path, &resp); err != nil {
		return entity.PlatformValue{}, fmt.Errorf("client.get: %w", err)
	}

	return resp, nil
}
