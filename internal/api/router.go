package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/collection"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// calendar, drive, attachments and sseHandler may be nil; their routes
// are mounted only when present.
func NewRouter(svc *collection.Service, calendar *CalendarHandler, drive *DriveHandler,
	attachments *AttachmentHandler, sseHandler http.Handler, authEnabled bool, token string) chi.Router {

	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Persistence API: whole-collection reads and type+action mutations.
	r.Get("/data", h.GetData)
	r.Post("/data", h.PostData)

	// Dashboard counters.
	r.Get("/stats", h.GetStats)

	// Outbound integrations.
	if calendar != nil {
		r.Post("/calendar", calendar.Post)
	}
	if drive != nil {
		r.Post("/drive", drive.Post)
	}

	// Document payload uploads (auth-protected).
	if attachments != nil {
		r.Post("/attachments", attachments.Upload)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
