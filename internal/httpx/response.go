package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/praevia/atmp/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps an apperr kind to its HTTP status. This is the only place a
// taxonomy kind becomes a status code; unexpected errors surface as a generic
// 500 without leaking internals.
func Error(w http.ResponseWriter, err error) {
	var details any
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if len(ae.Fields) > 0 {
			details = ae.Fields
		}
		msg = ae.Msg
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		JSONError(w, http.StatusBadRequest, msg, details)
	case apperr.KindForbidden:
		JSONError(w, http.StatusForbidden, msg, details)
	case apperr.KindNotFound:
		JSONError(w, http.StatusNotFound, msg, details)
	case apperr.KindConflict:
		JSONError(w, http.StatusConflict, msg, details)
	default:
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
