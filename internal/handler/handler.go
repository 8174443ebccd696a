package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/httputil"
	"github.com/creators-jp/portal-server/internal/model"
)

func writeNotFound(w http.ResponseWriter) {
	httputil.WriteError(w, apperrors.NotFound("Endpoint"))
}

// siteParam validates the {site} URL segment against the closed site set.
func siteParam(r *http.Request) (model.Site, error) {
	raw := chi.URLParam(r, "site")
	if !model.IsValidSite(raw) {
		return "", apperrors.InvalidSite(raw)
	}
	return model.Site(raw), nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	return nil
}

// queryInt returns the named query parameter as an int, or def when the
// parameter is absent or not a number.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
