package api

import (
	"net/http"
)

// HealthResponse is the body of the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	IndexDriver string `json:"index_driver,omitempty"`
	Listening   bool   `json:"listening"`
}

// NewHealthHandler returns the GET /api/healthz handler. listening reports
// whether a push listener is attached; it may be nil.
func NewHealthHandler(indexDriver string, listening func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", IndexDriver: indexDriver}
		if listening != nil {
			resp.Listening = listening()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
