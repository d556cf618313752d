package utils

import (
	"net/http"

	"recipehub/logging"

	"github.com/goccy/go-json"
)

type M map[string]interface{}

// RespondWithError writes the failure envelope {status:false, message}.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"status": false, "message": msg})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// RespondOK writes {status:true} merged with fields.
func RespondOK(w http.ResponseWriter, fields M) {
	body := M{"status": true}
	for k, v := range fields {
		body[k] = v
	}
	RespondWithJSON(w, http.StatusOK, body)
}
