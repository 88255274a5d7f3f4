package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/services"
)

const uploadMemoryLimit = 16 << 20 // 16MB before spooling to disk

// PredictHandler serves the landing page: CSV upload (or the bundled
// sample) in, scored batch results out.
type PredictHandler struct {
	Svc        *services.PredictionService
	Activity   *services.ActivityLog
	SamplePath string
}

func NewPredictHandler(svc *services.PredictionService, activity *services.ActivityLog, samplePath string) *PredictHandler {
	return &PredictHandler{Svc: svc, Activity: activity, SamplePath: samplePath}
}

func (h *PredictHandler) Register(mux *http.ServeMux) {
	mux.Handle("/predict", auth.RequireUser(http.HandlerFunc(h.index)))
}

func (h *PredictHandler) index(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "index", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}

	id, _ := auth.IdentityFromContext(r.Context())

	var src io.ReadCloser
	var originalName string
	switch action := h.formAction(r); action {
	case "use_sample":
		f, err := os.Open(h.SamplePath)
		if err != nil {
			renderTemplate(w, r, "index", map[string]any{"Error": "Sample file not found."})
			return
		}
		src = f
		originalName = filepath.Base(h.SamplePath)
	case "upload":
		file, header, err := r.FormFile("file")
		if err != nil || header.Filename == "" {
			renderTemplate(w, r, "index", map[string]any{"Error": "Please submit a CSV file to process."})
			return
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			file.Close()
			renderTemplate(w, r, "index", map[string]any{"Error": "Please submit a valid CSV file."})
			return
		}
		src = file
		originalName = header.Filename
	default:
		renderTemplate(w, r, "index", map[string]any{"Error": "Invalid action."})
		return
	}
	defer src.Close()

	result, err := h.Svc.Process(id.UserID, src, originalName)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			renderTemplate(w, r, "index", map[string]any{"Error": "Could not read the CSV: " + verr.Reason})
			return
		}
		renderStatus(w, r, http.StatusInternalServerError, "processing failed")
		return
	}
	h.Activity.Record(id.UserID, "upload_processed", originalName)
	renderTemplate(w, r, "results", map[string]any{"Result": result, "Flash": "File processed successfully!"})
}

// formAction parses the multipart or urlencoded form and returns the
// requested action.
func (h *PredictHandler) formAction(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
			return ""
		}
	} else if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.FormValue("action")
}
