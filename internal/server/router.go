package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncshield/pkg/logx"
	"syncshield/pkg/middlewarex"
)

// NewRouter builds the API handler with the standard middleware chain.
func NewRouter(s Server, logFieldMaxLen int) http.Handler {
	masker := logx.NewSensitiveDataMasker()

	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
	)

	s.RegisterRoutes(r)

	return r
}
