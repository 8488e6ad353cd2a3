package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ankiqueue/ankiqueue/internal/api"
	apimw "github.com/ankiqueue/ankiqueue/internal/api/middleware"
)

// setupRouter wires middleware, handlers and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apimw.TraceMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", apimw.SecretHeader},
	}).Handler)

	cardHandler := api.NewCardHandler(app.cardService, app.logger)
	auth := apimw.NewAuthMiddleware(app.config.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cardHandler.Enqueue)
			r.Post("/batch", cardHandler.EnqueueBatch)
			r.Get("/pending", cardHandler.ListPending)
			r.Post("/report", cardHandler.Report)
			r.Get("/{id}", cardHandler.GetCard)
			r.Post("/{id}/requeue", cardHandler.Requeue)

			if app.draftService != nil {
				draftHandler := api.NewDraftHandler(app.draftService, app.logger)
				r.Post("/draft", draftHandler.CreateDraft)
			}
		})
	})

	// Unauthenticated: sync clients probe this during port discovery.
	r.Get("/health", api.Health)

	return r
}
