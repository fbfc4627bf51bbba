package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/rsalgados/internal/model"
	"github.com/mmeshcher/rsalgados/internal/service"
	"github.com/mmeshcher/rsalgados/internal/validation"
)

// Register обрабатывает регистрацию нового клиента.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	client, err := h.service.RegisterClient(r.Context(), service.Registration(req))
	if err != nil {
		h.writeError(w, "register client", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, client)
}

// Login выполняет аутентификацию пользователя, устанавливает cookie и возвращает токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "login user", err)
		return
	}

	token, err := h.authMiddleware.SetAuthCookie(w, user.ID, user.Role)
	if err != nil {
		h.writeError(w, "issue token", err)
		return
	}

	h.writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Logout удаляет cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает профиль текущего клиента.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	client, err := h.service.Profile(r.Context(), caller)
	if err != nil {
		h.writeError(w, "get profile", err, zap.String("user_id", caller.UserID.String()))
		return
	}

	h.writeJSON(w, http.StatusOK, client)
}

// RegisterForm обрабатывает форму регистрации.
func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/auth/register?error=invalid", http.StatusSeeOther)
		return
	}

	req := registerRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
		Name:     r.PostForm.Get("name"),
		Phone:    r.PostForm.Get("phone"),
		Address:  r.PostForm.Get("address"),
	}
	if err := validation.Struct(req); err != nil {
		http.Redirect(w, r, "/auth/register?error=invalid", http.StatusSeeOther)
		return
	}

	if _, err := h.service.RegisterClient(r.Context(), service.Registration(req)); err != nil {
		if errors.Is(err, service.ErrDuplicateEmail) {
			http.Redirect(w, r, "/auth/register?error=email", http.StatusSeeOther)
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			http.Redirect(w, r, "/auth/register?error=invalid", http.StatusSeeOther)
			return
		}
		h.writeError(w, "register client", err)
		return
	}

	http.Redirect(w, r, "/auth/login?success", http.StatusSeeOther)
}

// LoginForm обрабатывает форму входа.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/auth/login?error", http.StatusSeeOther)
		return
	}

	user, err := h.service.Authenticate(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			http.Redirect(w, r, "/auth/login?error", http.StatusSeeOther)
			return
		}
		h.writeError(w, "login user", err)
		return
	}

	if user.Role != model.RoleClient {
		http.Redirect(w, r, "/auth/login?error", http.StatusSeeOther)
		return
	}

	if _, err := h.authMiddleware.SetAuthCookie(w, user.ID, user.Role); err != nil {
		h.writeError(w, "issue token", err)
		return
	}

	http.Redirect(w, r, "/orders", http.StatusSeeOther)
}

// LogoutForm удаляет cookie авторизации и возвращает на страницу входа.
func (h *Handler) LogoutForm(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	http.Redirect(w, r, "/auth/login?logout", http.StatusSeeOther)
}
