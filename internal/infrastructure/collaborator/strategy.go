package collaborator

import (
	"context"
	"errors"
	"fmt"
)

var ErrEmptyStrategy = errors.New("strategy service returned an empty plan")

type strategyRequest struct {
	UserID  string `json:"userId"`
	Context string `json:"context"`
}

type strategyResponse struct {
	Strategy string `json:"strategy"`
}

// StrategyService asks the planning service which bidding strategy to use.
type StrategyService struct {
	client *Client
}

func NewStrategyService(client *Client) *StrategyService {
	return &StrategyService{client: client}
}

func (s *StrategyService) GetStrategyPlan(ctx context.Context, userID, bidContext string) (string, error) {
	var resp strategyResponse

	err := s.client.post(ctx, "/v1/strategy", strategyRequest{UserID: userID, Context: bidContext}, &resp)
	if err != nil {
		return "", fmt.Errorf("client.post: %w", err)
	}

	if resp.Strategy == "" {
		return "", ErrEmptyStrategy
	}

	return resp.Strategy, nil
}
