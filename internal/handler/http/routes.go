package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Get("/api/version", h.getServerVersion)

	router.Group(func(r chi.Router) {
		r.Use(h.peerAuth)

		// long-lived, so no request timeout and no compression
		r.Get("/api/changes", h.changes)

		r.Group(func(r chi.Router) {
			if h.server.RequestTimeout > 0 {
				r.Use(middleware.Timeout(h.server.RequestTimeout))
			}
			r.Use(withGZip)

			r.Get("/api/docs", h.allDocs)
			r.Get("/api/docs/{id}", h.getDoc)
			r.Put("/api/docs/{id}", h.putDoc)
			r.Delete("/api/docs/{id}", h.removeDoc)
			r.Post("/api/bulk_docs", h.bulkDocs)
			r.Post("/api/bulk_get", h.bulkGet)
			r.Post("/api/bulk_remove", h.bulkRemove)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
