package handlers

import (
	"errors"
	"net/http"

	"github.com/Pedrom2002/airline-satisfaction-webapp/auth"
	"github.com/Pedrom2002/airline-satisfaction-webapp/httpx"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/services"
	"github.com/Pedrom2002/airline-satisfaction-webapp/view"
)

// User-facing messages for the auth forms. The lockout message is distinct
// from the generic credential failure on purpose.
const (
	msgInvalidCredentials = "Invalid credentials."
	msgAccountLocked      = "Account temporarily locked. Try again later."
	msgRegistered         = "Registration successful! Please log in."
	msgPasswordUpdated    = "Password updated successfully."
	msgPreferencesSaved   = "Preferences saved."
)

var validationMessages = map[string]string{
	"username.required":  "All fields are required.",
	"email.required":     "All fields are required.",
	"password.required":  "All fields are required.",
	"confirm.required":   "All fields are required.",
	"confirm.mismatch":   "Passwords do not match.",
	"password.too_short": "Password must be at least 8 characters.",
	"email.invalid_email": "Invalid email format.",
}

func validationMessage(e *services.ValidationError) string {
	if msg, ok := validationMessages[e.Field+"."+e.Reason]; ok {
		return msg
	}
	return "Invalid input."
}

// AuthHandler serves registration, login, profile and logout.
type AuthHandler struct {
	Svc      *services.AuthService
	Settings *services.SettingsService
	Activity *services.ActivityLog
}

func NewAuthHandler(svc *services.AuthService, settings *services.SettingsService, activity *services.ActivityLog) *AuthHandler {
	return &AuthHandler{Svc: svc, Settings: settings, Activity: activity}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/login", h.login)
	mux.Handle("/auth/profile", auth.RequireUser(http.HandlerFunc(h.profile)))
	mux.Handle("/auth/logout", auth.RequireUser(http.HandlerFunc(h.logout)))
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "register", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		renderTemplate(w, r, "register", map[string]any{"Error": "Invalid form submission."})
		return
	}
	username := r.FormValue("username")
	email := r.FormValue("email")
	user, err := h.Svc.Register(username, email, r.FormValue("password"), r.FormValue("confirm_password"))
	if err != nil {
		var verr *services.ValidationError
		var dup *services.DuplicateUserError
		switch {
		case errors.As(err, &verr):
			renderTemplate(w, r, "register", map[string]any{"Error": validationMessage(verr), "Username": username, "Email": email})
		case errors.As(err, &dup):
			msg := "Username already in use."
			if dup.Field == "email" {
				msg = "Email already registered."
			}
			renderTemplate(w, r, "register", map[string]any{"Error": msg, "Username": username, "Email": email})
		default:
			renderStatus(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	h.Activity.Record(user.ID, "register", "account created: "+user.Username)
	view.Flash(w, msgRegistered)
	httpx.SeeOther(w, r, "/auth/login")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		renderTemplate(w, r, "login", map[string]any{"Error": "Invalid form submission."})
		return
	}
	username := r.FormValue("username")
	user, err := h.Svc.Login(username, r.FormValue("password"))
	if err != nil {
		var locked *services.AccountLockedError
		switch {
		case errors.As(err, &locked):
			h.Activity.Record(0, "login_locked", "locked account login attempt: "+username)
			renderTemplate(w, r, "login", map[string]any{"Error": msgAccountLocked, "Username": username})
		case errors.Is(err, services.ErrInvalidCredentials):
			h.Activity.Record(0, "login_failed", "failed login: "+username)
			renderTemplate(w, r, "login", map[string]any{"Error": msgInvalidCredentials, "Username": username})
		default:
			renderStatus(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}
	auth.CreateSession(w, user.ID)
	h.Activity.Record(user.ID, "login", "login: "+user.Username)
	httpx.SeeOther(w, r, "/predict")
}

// profile renders the profile page and handles both of its forms: password
// change and preference updates, selected by the hidden "action" field.
func (h *AuthHandler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if r.Method == http.MethodGet {
		h.renderProfile(w, r, id, nil)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "GET,POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderProfile(w, r, id, map[string]any{"Error": "Invalid form submission."})
		return
	}
	if r.FormValue("action") == "preferences" {
		h.savePreferences(w, r, id)
		return
	}
	err := h.Svc.ChangePassword(id.UserID, r.FormValue("current_password"), r.FormValue("new_password"), r.FormValue("confirm_password"))
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.renderProfile(w, r, id, map[string]any{"Error": "Current password is incorrect."})
		case errors.As(err, &verr):
			h.renderProfile(w, r, id, map[string]any{"Error": validationMessage(verr)})
		default:
			renderStatus(w, r, http.StatusInternalServerError, "password change failed")
		}
		return
	}
	h.Activity.Record(id.UserID, "password_change", "password changed")
	h.renderProfile(w, r, id, map[string]any{"Success": msgPasswordUpdated})
}

func (h *AuthHandler) savePreferences(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	theme := r.FormValue("theme")
	if theme != "" {
		if err := h.Settings.Set(id.UserID, services.PrefTheme, theme); err != nil {
			h.renderProfile(w, r, id, map[string]any{"Error": "Could not save preferences."})
			return
		}
	}
	if rows := r.FormValue("result_rows"); rows != "" {
		if err := h.Settings.Set(id.UserID, services.PrefResultRows, rows); err != nil {
			h.renderProfile(w, r, id, map[string]any{"Error": "Could not save preferences."})
			return
		}
	}
	h.renderProfile(w, r, id, map[string]any{"Success": msgPreferencesSaved})
}

func (h *AuthHandler) renderProfile(w http.ResponseWriter, r *http.Request, id auth.Identity, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	user, ok := h.Svc.LoadUser(id.UserID)
	if !ok {
		renderStatus(w, r, http.StatusNotFound, "user not found")
		return
	}
	data["User"] = user
	data["Theme"] = h.Settings.Get(id.UserID, services.PrefTheme, "light")
	data["ResultRows"] = h.Settings.Get(id.UserID, services.PrefResultRows, "100")
	renderTemplate(w, r, "profile", data)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		h.Activity.Record(id.UserID, "logout", "logout: "+id.Username)
	}
	auth.ClearSession(w)
	httpx.SeeOther(w, r, "/auth/login")
}
