package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/services"
)

// HistoryHandler lists a user's processed uploads and serves the enriched
// CSVs for download.
type HistoryHandler struct {
	Svc *services.HistoryService
}

func NewHistoryHandler(svc *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{Svc: svc}
}

func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /history", auth.RequireUser(http.HandlerFunc(h.history)))
	mux.Handle("GET /history/download/{filename}", auth.RequireUser(http.HandlerFunc(h.download)))
}

func (h *HistoryHandler) history(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	uploads, err := h.Svc.Uploads(id.UserID)
	if err != nil {
		renderStatus(w, r, http.StatusInternalServerError, "could not load history")
		return
	}
	renderTemplate(w, r, "history", map[string]any{"Uploads": uploads})
}

func (h *HistoryHandler) download(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	path, err := h.Svc.ResolveDownload(filename)
	if err != nil {
		renderStatus(w, r, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}
