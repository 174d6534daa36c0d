package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/estate-listings/auth"
	"github.com/diewo77/estate-listings/httpx"
	"github.com/diewo77/estate-listings/internal/services"
	"github.com/diewo77/estate-listings/internal/view"
	"github.com/diewo77/estate-listings/validation"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

type AuthHandler struct {
	Identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{Identity: identity}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/login", h.loginForm)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("POST /auth/logout", h.logout)
	mux.HandleFunc("GET /auth/register", h.registerForm)
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("GET /auth/confirm/{token}", h.confirm)
	mux.HandleFunc("GET /auth/forgot-password", h.forgotForm)
	mux.HandleFunc("POST /auth/forgot-password", h.forgot)
	mux.HandleFunc("GET /auth/reset-password/{token}", h.resetForm)
	mux.HandleFunc("POST /auth/reset-password/{token}", h.reset)
}

// renderTemplate uses the shared view.Render to ensure layout, partials, funcs, and caching.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

func (h *AuthHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	// Already logged in with a live account: skip the form.
	if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
		http.Redirect(w, r, "/my-properties", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "auth/login", map[string]any{"Page": "Sign In"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	v := validation.Violations{}
	validation.Email("email", email, v)
	validation.Required("password", pass, v)
	if !v.Empty() {
		renderTemplate(w, r, "auth/login", map[string]any{"Page": "Sign In", "Errors": v, "Email": email})
		return
	}
	user, err := h.Identity.Authenticate(email, pass)
	if err != nil {
		msg := "could not sign you in"
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			msg = "that account does not exist"
		case errors.Is(err, services.ErrNotConfirmed):
			msg = "your account is not confirmed yet"
		case errors.Is(err, services.ErrBadPassword):
			msg = "wrong password"
		}
		renderTemplate(w, r, "auth/login", map[string]any{"Page": "Sign In", "Error": msg, "Email": email})
		return
	}
	auth.CreateSession(w, user.ID)
	// PRG redirect (303)
	http.Redirect(w, r, "/my-properties", statusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/auth/login", statusSeeOther)
}

func (h *AuthHandler) registerForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "auth/register", map[string]any{"Page": "Create Account"})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	repeat := r.FormValue("repeat_password")
	v := validation.Violations{}
	validation.Required("name", name, v)
	validation.Email("email", email, v)
	validation.MinLen("password", pass, 6, v)
	validation.Equal("repeat_password", repeat, pass, v)
	submitted := map[string]any{"Page": "Create Account", "Name": name, "Email": email}
	if !v.Empty() {
		submitted["Errors"] = v
		renderTemplate(w, r, "auth/register", submitted)
		return
	}
	_, err := h.Identity.Register(services.RegisterInput{Name: name, Email: email, Password: pass})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			submitted["Error"] = "that email is already registered"
			renderTemplate(w, r, "auth/register", submitted)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		renderTemplate(w, r, "auth/register", map[string]any{"Page": "Create Account", "Error": "could not create the account"})
		return
	}
	renderTemplate(w, r, "message", map[string]any{
		"Page":    "Account Created",
		"Message": "We sent a confirmation email, follow the link to activate your account.",
	})
}

func (h *AuthHandler) confirm(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := h.Identity.Confirm(token); err != nil {
		renderTemplate(w, r, "auth/confirm", map[string]any{
			"Page":    "Confirmation Failed",
			"Message": "There was a problem confirming your account, try again.",
			"IsError": true,
		})
		return
	}
	renderTemplate(w, r, "auth/confirm", map[string]any{
		"Page":    "Account Confirmed",
		"Message": "Your account is confirmed, you can sign in now.",
	})
}

func (h *AuthHandler) forgotForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "auth/forgot-password", map[string]any{"Page": "Recover Access"})
}

func (h *AuthHandler) forgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	v := validation.Violations{}
	validation.Email("email", email, v)
	if !v.Empty() {
		renderTemplate(w, r, "auth/forgot-password", map[string]any{"Page": "Recover Access", "Errors": v})
		return
	}
	if err := h.Identity.StartPasswordReset(email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			renderTemplate(w, r, "auth/forgot-password", map[string]any{"Page": "Recover Access", "Error": "that email does not belong to any account"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		renderTemplate(w, r, "auth/forgot-password", map[string]any{"Page": "Recover Access", "Error": "could not start the reset"})
		return
	}
	renderTemplate(w, r, "message", map[string]any{
		"Page":    "Reset Your Password",
		"Message": "We sent an email with the instructions.",
	})
}

func (h *AuthHandler) resetForm(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if !h.Identity.TokenValid(token) {
		renderTemplate(w, r, "auth/confirm", map[string]any{
			"Page":    "Reset Your Password",
			"Message": "There was a problem validating your request, try again.",
			"IsError": true,
		})
		return
	}
	renderTemplate(w, r, "auth/reset-password", map[string]any{"Page": "Reset Your Password"})
}

func (h *AuthHandler) reset(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	pass := r.FormValue("password")
	repeat := r.FormValue("repeat_password")
	v := validation.Violations{}
	validation.MinLen("password", pass, 6, v)
	validation.Equal("repeat_password", repeat, pass, v)
	if !v.Empty() {
		renderTemplate(w, r, "auth/reset-password", map[string]any{"Page": "Reset Your Password", "Errors": v})
		return
	}
	if err := h.Identity.ResetPassword(token, pass); err != nil {
		renderTemplate(w, r, "auth/confirm", map[string]any{
			"Page":    "Reset Your Password",
			"Message": "There was a problem validating your request, try again.",
			"IsError": true,
		})
		return
	}
	renderTemplate(w, r, "auth/confirm", map[string]any{
		"Page":    "Password Saved",
		"Message": "Your new password is saved, you can sign in now.",
	})
}
