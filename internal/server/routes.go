package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/bids", func(r chi.Router) {
			r.Post("/evaluate", handler(s.postV1BidsEvaluate))
			r.Post("/execute", handler(s.postV1BidsExecute))
		})

		r.Route("/budget", func(r chi.Router) {
			r.Get("/efficiency", handler(s.getV1BudgetEfficiency))
			r.Post("/cycle", handler(s.postV1BudgetCycle))
			r.Get("/reallocations", handler(s.getV1BudgetReallocations))
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(r.Context(), w, err)
		}
	}
}
