package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/creators-jp/portal-server/internal/audit"
	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/service"
)

// FailureNotifier reports operational failures to Discord;
// *service.NotifyService satisfies it.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, site model.Site, errorType string, cause error)
}

type ArticleHandler struct {
	articles *service.ArticleService
	sync     *service.SyncService
	notifier FailureNotifier
}

func NewArticleHandler(articles *service.ArticleService, sync *service.SyncService, notifier FailureNotifier) *ArticleHandler {
	return &ArticleHandler{articles: articles, sync: sync, notifier: notifier}
}

func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	site, err := siteParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		httputil.WriteError(w, apperrors.ValidationError("page must be 1 or greater"))
		return
	}
	limit := queryInt(r, "limit", config.DefaultPageLimit)
	if limit < 1 || limit > config.MaxPageLimit {
		httputil.WriteError(w, apperrors.ValidationError("limit must be between 1 and 100"))
		return
	}

	filter := model.ArticleFilter{
		Site:     site,
		Category: r.URL.Query().Get("category"),
		Month:    r.URL.Query().Get("month"),
		Limit:    limit,
	}
	// The author facet only exists on the salon site.
	if site == model.SiteSalon {
		filter.Author = r.URL.Query().Get("author")
	}

	list, fromCache, cachedAt, err := h.articles.List(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if fromCache && cachedAt != nil {
		httputil.WriteCached(w, list, cachedAt.Format(time.RFC3339))
		return
	}
	httputil.WriteSuccess(w, list)
}

func (h *ArticleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	site, err := siteParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	force := r.URL.Query().Get("forceSync") == "true"

	user := middleware.GetUser(r.Context())
	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventSyncTrigger,
		UserID: user.ID,
		Email:  user.Email,
		Details: map[string]any{
			"site":      site,
			"forceSync": force,
		},
	})

	result, err := h.sync.Sync(r.Context(), site, force)
	if err != nil {
		h.notifier.NotifyFailure(r.Context(), site, "article_sync", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (h *ArticleHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	site, err := siteParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.sync.Status(r.Context(), site)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if status == nil {
		httputil.WriteError(w, apperrors.NotFound("Sync status"))
		return
	}
	httputil.WriteSuccess(w, status)
}
