package handler

import (
	"net/http"
	"time"

	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, apperrors.ValidationError("Email and password are required"))
		return
	}

	user, sessionID, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	middleware.SetSessionCookie(w, sessionID, time.Now().Add(config.SessionTTL))
	httputil.WriteSuccess(w, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	middleware.ClearSessionCookie(w)
	httputil.WriteSuccess(w, map[string]bool{"loggedOut": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		httputil.WriteError(w, apperrors.AuthRequired())
		return
	}
	httputil.WriteSuccess(w, user)
}
