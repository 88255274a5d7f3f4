// Package handlers contains the HTTP handlers for the auth, prediction,
// history and admin surfaces. Handlers parse forms, call services, and
// translate the service error taxonomy into responses; they never touch
// SQL directly.
package handlers

import (
	"net/http"

	"github.com/Pedrom2002/airline-satisfaction-webapp/httpx"
	"github.com/Pedrom2002/airline-satisfaction-webapp/view"
)

// renderTemplate wraps view.Render so a template failure cannot leak a
// half-written page.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// renderStatus writes an error page with the given status. JSON clients get
// a structured body instead.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, msg, nil)
		return
	}
	w.WriteHeader(status)
	if err := view.Render(w, r, "error.html", map[string]any{"Status": status, "Message": msg}); err != nil {
		if _, werr := w.Write([]byte(msg)); werr != nil {
			_ = werr
		}
	}
}

// NotFound is the catch-all for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	renderStatus(w, r, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
