package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
	"github.com/Pedrom2002/airline-satisfaction-webapp/gate"
	"github.com/Pedrom2002/airline-satisfaction-webapp/httpx"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/services"
	"github.com/Pedrom2002/airline-satisfaction-webapp/view"
)

// TableResource is the gate resource type for admin table operations.
const TableResource = "table"

// TablePolicy authorizes admin table access: the subject must carry the
// admin capability and the target table must be allow-listed. The table
// name travels as the gate resource.
type TablePolicy struct {
	Svc *services.AdminService
}

func (p *TablePolicy) Can(_ context.Context, id auth.Identity, _ gate.Action, resource any) bool {
	if !id.IsAdmin {
		return false
	}
	table, ok := resource.(string)
	if !ok {
		// Index listing: admin capability alone is enough.
		return resource == nil
	}
	for _, t := range p.Svc.Tables() {
		if t == table {
			return true
		}
	}
	return false
}

// AdminHandler serves the generic table editor.
type AdminHandler struct {
	Svc      *services.AdminService
	Gate     *gate.Gate[auth.Identity]
	Activity *services.ActivityLog
}

func NewAdminHandler(svc *services.AdminService, g *gate.Gate[auth.Identity], activity *services.ActivityLog) *AdminHandler {
	g.Register(TableResource, &TablePolicy{Svc: svc})
	return &AdminHandler{Svc: svc, Gate: g, Activity: activity}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /admin/{$}", auth.RequireUser(http.HandlerFunc(h.index)))
	mux.Handle("GET /admin/table/{table}", auth.RequireUser(http.HandlerFunc(h.table)))
	mux.Handle("/admin/table/{table}/edit/{id}", auth.RequireUser(http.HandlerFunc(h.edit)))
	mux.Handle("POST /admin/table/{table}/delete/{id}", auth.RequireUser(http.HandlerFunc(h.del)))
}

// authorize runs the gate for the given table (nil for the index) and
// reports whether the request may proceed; on denial it has already
// written the 403.
func (h *AdminHandler) authorize(w http.ResponseWriter, r *http.Request, action gate.Action, resource any) bool {
	id, _ := auth.IdentityFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), id, action, TableResource, resource); err != nil {
		renderStatus(w, r, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrForbiddenTable):
		renderStatus(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrNotFound):
		renderStatus(w, r, http.StatusNotFound, "record not found")
	default:
		renderStatus(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *AdminHandler) index(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionList, nil) {
		return
	}
	renderTemplate(w, r, "admin/index", map[string]any{"Tables": h.Svc.Tables()})
}

func (h *AdminHandler) table(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if !h.authorize(w, r, gate.ActionList, table) {
		return
	}
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	listing, err := h.Svc.ListRecords(table, r.URL.Query().Get("search"), r.URL.Query().Get("column"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	renderTemplate(w, r, "admin/table", map[string]any{
		"Listing":  listing,
		"PrevPage": listing.Page - 1,
		"NextPage": listing.Page + 1,
	})
}

func (h *AdminHandler) edit(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if !h.authorize(w, r, gate.ActionUpdate, table) {
		return
	}
	recordID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderStatus(w, r, http.StatusNotFound, "record not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := h.Svc.GetRecord(table, recordID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		cols, err := h.Svc.Columns(table)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		renderTemplate(w, r, "admin/edit", map[string]any{
			"Table":   table,
			"ID":      recordID,
			"Columns": cols,
			"Record":  record,
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			renderStatus(w, r, http.StatusBadRequest, "invalid form")
			return
		}
		values := map[string]string{}
		for key := range r.PostForm {
			values[key] = r.PostForm.Get(key)
		}
		if err := h.Svc.UpdateRecord(table, recordID, values); err != nil {
			h.fail(w, r, err)
			return
		}
		h.adminAudit(r, "admin_update", table, recordID)
		view.Flash(w, "Record updated.")
		httpx.SeeOther(w, r, "/admin/table/"+table)
	default:
		methodNotAllowed(w, "GET,POST")
	}
}

func (h *AdminHandler) del(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	if !h.authorize(w, r, gate.ActionDelete, table) {
		return
	}
	recordID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderStatus(w, r, http.StatusNotFound, "record not found")
		return
	}
	if err := h.Svc.DeleteRecord(table, recordID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.adminAudit(r, "admin_delete", table, recordID)
	view.Flash(w, "Record deleted.")
	httpx.SeeOther(w, r, "/admin/table/"+table)
}

func (h *AdminHandler) adminAudit(r *http.Request, action, table string, recordID int64) {
	id, _ := auth.IdentityFromContext(r.Context())
	h.Activity.Record(id.UserID, action, table+" id="+strconv.FormatInt(recordID, 10))
}
