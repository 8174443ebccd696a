package handler

import (
	"net/http"
	"time"

	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/service"
)

type ReportHandler struct {
	reports   *service.ReportService
	summaries *service.SummaryService
}

func NewReportHandler(reports *service.ReportService, summaries *service.SummaryService) *ReportHandler {
	return &ReportHandler{reports: reports, summaries: summaries}
}

func (h *ReportHandler) GA(w http.ResponseWriter, r *http.Request) {
	site, err := h.authorizeSite(r, func(p model.Permissions) bool { return p.GA4 })
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	data, fromCache, cachedAt, err := h.reports.GA(r.Context(), site, r.URL.Query().Get("period"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeReport(w, data, fromCache, cachedAt)
}

func (h *ReportHandler) GSC(w http.ResponseWriter, r *http.Request) {
	site, err := h.authorizeSite(r, func(p model.Permissions) bool { return p.GSC })
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	data, fromCache, cachedAt, err := h.reports.GSC(r.Context(), site, r.URL.Query().Get("period"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeReport(w, data, fromCache, cachedAt)
}

func (h *ReportHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	site, err := h.authorizeSite(r, func(p model.Permissions) bool { return p.Dashboard })
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summaries, fromCache, cachedAt, err := h.summaries.List(r.Context(), site)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeReport(w, summaries, fromCache, cachedAt)
}

func (h *ReportHandler) SaveSummary(w http.ResponseWriter, r *http.Request) {
	var input service.SaveSummaryInput
	if err := decodeJSON(r, &input); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !model.IsValidSite(string(input.Site)) {
		httputil.WriteError(w, apperrors.InvalidSite(string(input.Site)))
		return
	}

	if err := h.summaries.Save(r.Context(), input); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]bool{"saved": true})
}

// authorizeSite validates the {site} segment, then checks the resolved
// user's feature permission and site membership. Admins pass both
// checks via the resolver's override.
func (h *ReportHandler) authorizeSite(r *http.Request, allowed func(model.Permissions) bool) (model.Site, error) {
	site, err := siteParam(r)
	if err != nil {
		return "", err
	}

	user := middleware.GetUser(r.Context())
	if user == nil {
		return "", apperrors.AuthRequired()
	}
	if !allowed(user.Permissions) {
		return "", apperrors.Forbidden("You do not have permission to view this report")
	}
	if !user.HasSite(site) {
		return "", apperrors.Forbidden("You do not have access to this site")
	}
	return site, nil
}

func writeReport(w http.ResponseWriter, data any, fromCache bool, cachedAt *time.Time) {
	if fromCache && cachedAt != nil {
		httputil.WriteCached(w, data, cachedAt.Format(time.RFC3339))
		return
	}
	httputil.WriteSuccess(w, data)
}
