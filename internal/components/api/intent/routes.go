package intent

import "github.com/go-chi/chi/v5"

// Routes mounts the bridge endpoints on r, relative to the service prefix.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/shares", h.HandleShare)
	r.Get("/channels", h.HandleChannels)
	r.Post("/channels/intent/init", h.HandleMethodCall)
	r.Get("/channels/intent/new", h.HandleEvents)
	r.Post("/index/rows", h.HandlePutRow)
}
