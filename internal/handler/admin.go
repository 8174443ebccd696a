package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/creators-jp/portal-server/internal/audit"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/service"
)

const notificationLogLimit = 50

// CacheClearer is the slice of the cache the admin surface needs;
// *cache.Cache satisfies it.
type CacheClearer interface {
	ClearByPrefix(ctx context.Context, prefix string) (int, error)
}

type AdminHandler struct {
	users  *service.UserService
	notify *service.NotifyService
	cache  CacheClearer
}

func NewAdminHandler(users *service.UserService, notify *service.NotifyService, cache CacheClearer) *AdminHandler {
	return &AdminHandler{users: users, notify: notify, cache: cache}
}

// Users

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input service.UserInput
	if err := decodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.users.Create(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := middleware.GetUser(r.Context())
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventUserCreate,
		UserID:  caller.ID,
		Email:   caller.Email,
		Details: map[string]any{"createdUserId": user.ID, "createdEmail": user.Email},
	})

	httputil.WriteSuccess(w, user)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input service.UserInput
	if err := decodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := middleware.GetUser(r.Context())
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventUserUpdate,
		UserID:  caller.ID,
		Email:   caller.Email,
		Details: map[string]any{"updatedUserId": id, "passwordChanged": input.Password != ""},
	})

	httputil.WriteSuccess(w, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller := middleware.GetUser(r.Context())

	if err := h.users.Delete(r.Context(), id, caller.ID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventUserDelete,
		UserID:  caller.ID,
		Email:   caller.Email,
		Details: map[string]any{"deletedUserId": id},
	})

	httputil.WriteSuccess(w, map[string]bool{"deleted": true})
}

// Notifications

func (h *AdminHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	site, err := siteParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	logs, err := h.notify.Logs(r.Context(), site, notificationLogLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, logs)
}

func (h *AdminHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var input service.NotifyInput
	if err := decodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !model.IsValidSite(string(input.Site)) {
		httputil.WriteError(w, apperrors.InvalidSite(string(input.Site)))
		return
	}

	if err := h.notify.Notify(r.Context(), input); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"sent": true})
}

// Cache

func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prefix string `json:"prefix"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	cleared, err := h.cache.ClearByPrefix(r.Context(), req.Prefix)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := middleware.GetUser(r.Context())
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventCacheClear,
		UserID:  caller.ID,
		Email:   caller.Email,
		Details: map[string]any{"prefix": req.Prefix, "cleared": cleared},
	})

	httputil.WriteSuccess(w, map[string]int{"cleared": cleared})
}
