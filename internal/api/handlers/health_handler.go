package handlers

import "net/http"

// Version is reported by the health endpoint
const Version = "1.0.2"

// Health handles GET / and GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"health_check": "OK",
		"version":      Version,
	})
}
