package handler

import (
	"encoding/json"
	"net/http"

	"github.com/goil-app/notifications-api/internal/domain"
)

// respondData writes a success envelope.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, domain.OK(data))
}

// respondError writes an error envelope with a short client-facing message.
func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, domain.Error(message))
}

func writeEnvelope(w http.ResponseWriter, status int, body domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
