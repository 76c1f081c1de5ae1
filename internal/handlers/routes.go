package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups every route handler of the API.
type Handlers struct {
	Items         *ItemHandler
	Assistant     *AssistantHandler
	Notifications *NotificationHandler
	System        *SystemHandler
}

// Guards adds middleware to one group of /api routes. Nil fields add nothing.
// /api/fetch-url belongs to no group: it always answers with metadata or the
// fallback, and the fetcher keeps its own outbound breaker.
type Guards struct {
	// Data covers items, graph, export, analytics and notifications.
	Data func(http.Handler) http.Handler
	// Assistant covers the LLM backed chat and feed routes.
	Assistant func(http.Handler) http.Handler
}

// MountAPI registers the /api routes on r.
func (h *Handlers) MountAPI(r chi.Router, g Guards) {
	r.Group(func(r chi.Router) {
		if g.Data != nil {
			r.Use(g.Data)
		}
		r.Post("/items/save", h.Items.SaveItem)
		r.Route("/items/{user_id}", func(r chi.Router) {
			r.Get("/", h.Items.ListItems)
			r.Get("/search", h.Items.SearchItems)
			r.Get("/{id}", h.Items.GetItem)
			r.Patch("/{id}", h.Items.UpdateItem)
			r.Delete("/{id}", h.Items.DeleteItem)
			r.Post("/{id}/pin", h.Items.TogglePin)
		})
		r.Get("/graph/{user_id}", h.Items.Graph)
		r.Get("/export/{user_id}", h.Items.Export)
		r.Get("/analytics/{user_id}", h.System.Analytics)

		r.Route("/notifications/{user_id}", func(r chi.Router) {
			r.Get("/", h.Notifications.List)
			r.Delete("/", h.Notifications.Clear)
			r.Post("/read", h.Notifications.MarkAllRead)
			r.Post("/{id}/read", h.Notifications.MarkRead)
			r.Delete("/{id}", h.Notifications.Delete)
		})
	})

	r.Group(func(r chi.Router) {
		if g.Assistant != nil {
			r.Use(g.Assistant)
		}
		r.Post("/chat", h.Assistant.Chat)
		r.Post("/feed", h.Assistant.Feed)
	})

	r.Post("/fetch-url", h.Assistant.FetchURL)
}

// MountSystem registers the routes outside /api.
func (h *Handlers) MountSystem(r chi.Router) {
	r.Get("/", h.System.Root)
	r.Get("/health", h.System.Health)
}
