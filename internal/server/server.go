package server

import "syncshield/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Server groups the per-resource HTTP servers.
type Server struct {
	BidServer
	BudgetServer
}

func NewServer(
	bidServer BidServer,
	budgetServer BudgetServer,
) Server {
	return Server{
		BidServer:    bidServer,
		BudgetServer: budgetServer,
	}
}
