// Package httpx holds small HTTP response helpers shared by handlers.
package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// JSONError writes a structured error body.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// SeeOther issues the Post/Redirect/Get redirect used after every
// successful form submission.
func SeeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// WantsJSON reports whether the client asked for JSON rather than HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
