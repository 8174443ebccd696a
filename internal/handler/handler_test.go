package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/creators-jp/portal-server/internal/cache"
	"github.com/creators-jp/portal-server/internal/config"
	"github.com/creators-jp/portal-server/internal/middleware"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/service"
	"github.com/creators-jp/portal-server/internal/util"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		FromCache bool   `json:"fromCache"`
		CachedAt  string `json:"cachedAt"`
		RequestID string `json:"requestId"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func cacheEntry(data json.RawMessage, cachedAt time.Time) *cache.Entry {
	return &cache.Entry{Data: data, CachedAt: cachedAt, ExpiresAt: cachedAt.Add(time.Hour)}
}

func withUser(r *http.Request, user *model.ResolvedUser) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
	return r.WithContext(ctx)
}

func resolvedUser(admin bool, perms model.Permissions, sites ...model.Site) *model.ResolvedUser {
	return &model.ResolvedUser{
		ID:          "user-1",
		Email:       "user@creators-jp.com",
		IsAdmin:     admin,
		IsActive:    true,
		Permissions: perms,
		Sites:       sites,
	}
}

func TestLogin(t *testing.T) {
	t.Run("sets session cookie and returns resolved user", func(t *testing.T) {
		hash, err := util.HashPassword("correct-horse")
		require.NoError(t, err)

		admin := &model.User{
			ID:           "user-1",
			Email:        "admin@creators-jp.com",
			PasswordHash: hash,
			IsAdmin:      true,
			IsActive:     true,
		}
		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		userRepo.On("FindActiveByEmail", mock.Anything, "admin@creators-jp.com").Return(admin, nil)
		userRepo.On("FindByID", mock.Anything, "user-1").Return(admin, nil)
		sessionRepo.On("Create", mock.Anything, mock.Anything, "user-1", mock.Anything).
			Return(&model.Session{ID: "sess", UserID: "user-1"}, nil)

		h := NewAuthHandler(service.NewAuthService(userRepo, sessionRepo))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"admin@creators-jp.com","password":"correct-horse"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		var user model.ResolvedUser
		require.NoError(t, json.Unmarshal(env.Data, &user))
		assert.True(t, user.IsAdmin)
		assert.ElementsMatch(t, model.AllSites, user.Sites)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, config.SessionCookieName, c.Name)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.WithinDuration(t, time.Now().Add(config.SessionTTL), c.Expires, time.Minute)
	})

	t.Run("rejects wrong password with 401", func(t *testing.T) {
		hash, err := util.HashPassword("correct-horse")
		require.NoError(t, err)

		userRepo := new(mockUserRepo)
		sessionRepo := new(mockSessionRepo)
		userRepo.On("FindActiveByEmail", mock.Anything, "admin@creators-jp.com").Return(&model.User{
			ID:           "user-1",
			Email:        "admin@creators-jp.com",
			PasswordHash: hash,
			IsActive:     true,
		}, nil)

		h := NewAuthHandler(service.NewAuthService(userRepo, sessionRepo))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"admin@creators-jp.com","password":"wrong"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "AUTH_INVALID", env.Error.Code)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("requires email and password", func(t *testing.T) {
		h := NewAuthHandler(service.NewAuthService(new(mockUserRepo), new(mockSessionRepo)))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"email":"admin@creators-jp.com"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("deletes session and expires cookie", func(t *testing.T) {
		sessionRepo := new(mockSessionRepo)
		sessionRepo.On("Delete", mock.Anything, "sess-1").Return(nil)

		h := NewAuthHandler(service.NewAuthService(new(mockUserRepo), sessionRepo))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		sessionRepo.AssertCalled(t, "Delete", mock.Anything, "sess-1")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

type noopNotifier struct{}

func (noopNotifier) NotifyFailure(ctx context.Context, site model.Site, errorType string, cause error) {
}

func newArticleRouter(articleRepo *mockArticleRepo, c *mockCache) chi.Router {
	articles := service.NewArticleService(articleRepo, c)
	sync := service.NewSyncService(&config.Config{}, articleRepo, nil, c)
	h := NewArticleHandler(articles, sync, noopNotifier{})

	r := chi.NewRouter()
	r.Get("/api/articles/{site}", h.List)
	r.Get("/api/articles/sync/{site}", h.SyncStatus)
	return r
}

func TestArticleList(t *testing.T) {
	t.Run("rejects unknown site", func(t *testing.T) {
		r := newArticleRouter(new(mockArticleRepo), new(mockCache))

		req := httptest.NewRequest(http.MethodGet, "/api/articles/blog", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_SITE", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("rejects out-of-range limit", func(t *testing.T) {
		r := newArticleRouter(new(mockArticleRepo), new(mockCache))

		req := httptest.NewRequest(http.MethodGet, "/api/articles/public?limit=101", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("ignores author filter for the public site", func(t *testing.T) {
		articleRepo := new(mockArticleRepo)
		c := new(mockCache)
		c.On("Get", mock.Anything, mock.Anything).Return(nil, nil)
		c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		articleRepo.On("FindFiltered", mock.Anything, mock.MatchedBy(func(f model.ArticleFilter) bool {
			return f.Site == model.SitePublic && f.Author == ""
		})).Return([]model.Article{}, nil)
		articleRepo.On("CountFiltered", mock.Anything, mock.Anything).Return(0, nil)
		articleRepo.On("Facets", mock.Anything, model.SitePublic).Return(&model.ArticleFacets{}, nil)
		articleRepo.On("FindSyncStatus", mock.Anything, model.SitePublic).Return(nil, nil)

		r := newArticleRouter(articleRepo, c)

		req := httptest.NewRequest(http.MethodGet, "/api/articles/public?author=yamada", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		articleRepo.AssertExpectations(t)
	})

	t.Run("marks cached responses in meta", func(t *testing.T) {
		articleRepo := new(mockArticleRepo)
		c := new(mockCache)

		cachedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		payload, _ := json.Marshal(service.ArticleList{Articles: []model.Article{}})
		c.On("Get", mock.Anything, "articles:public").Return(cacheEntry(payload, cachedAt), nil)

		r := newArticleRouter(articleRepo, c)

		req := httptest.NewRequest(http.MethodGet, "/api/articles/public", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Meta.FromCache)
		assert.Equal(t, "2025-03-10T09:00:00Z", env.Meta.CachedAt)
		articleRepo.AssertNotCalled(t, "FindFiltered", mock.Anything, mock.Anything)
	})
}

func TestSyncStatusEndpoint(t *testing.T) {
	t.Run("returns 404 before first sync", func(t *testing.T) {
		articleRepo := new(mockArticleRepo)
		articleRepo.On("FindSyncStatus", mock.Anything, model.SiteSalon).Return(nil, nil)

		r := newArticleRouter(articleRepo, new(mockCache))

		req := httptest.NewRequest(http.MethodGet, "/api/articles/sync/salon", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
	})
}

func newReportRouter(c *mockCache, user *model.ResolvedUser) chi.Router {
	cfg := &config.Config{
		SiteURLPublic:       "https://creators-jp.com",
		SiteURLSalon:        "https://salon.creators-jp.com",
		GA4PropertyIDPublic: "123",
		GA4PropertyIDSalon:  "456",
	}
	reports := service.NewReportService(cfg, c, nil, nil)
	summaries := service.NewSummaryService(nil, c)
	h := NewReportHandler(reports, summaries)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, withUser(req, user))
		})
	})
	r.Get("/api/ga/{site}", h.GA)
	r.Get("/api/gsc/{site}", h.GSC)
	return r
}

func TestReportAuthorization(t *testing.T) {
	t.Run("denies user without the ga4 permission", func(t *testing.T) {
		user := resolvedUser(false, model.Permissions{GSC: true}, model.SitePublic)
		r := newReportRouter(new(mockCache), user)

		req := httptest.NewRequest(http.MethodGet, "/api/ga/public", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("denies site the user is not assigned to", func(t *testing.T) {
		user := resolvedUser(false, model.Permissions{GA4: true}, model.SiteSalon)
		r := newReportRouter(new(mockCache), user)

		req := httptest.NewRequest(http.MethodGet, "/api/ga/public", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("serves cached report to a permitted user", func(t *testing.T) {
		user := resolvedUser(false, model.Permissions{GA4: true}, model.SitePublic)
		c := new(mockCache)

		cachedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		c.On("Get", mock.Anything, "ga:public:2025-02").Return(cacheEntry(json.RawMessage(`{"summary":{}}`), cachedAt), nil)

		r := newReportRouter(c, user)

		req := httptest.NewRequest(http.MethodGet, "/api/ga/public?period=2025-02", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Meta.FromCache)
	})

	t.Run("rejects malformed period", func(t *testing.T) {
		user := resolvedUser(true, model.Permissions{}, model.AllSites...)
		r := newReportRouter(new(mockCache), user)

		req := httptest.NewRequest(http.MethodGet, "/api/gsc/salon?period=2025-13", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_PERIOD", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestClearCache(t *testing.T) {
	t.Run("clears by prefix and reports the count", func(t *testing.T) {
		c := new(mockCache)
		c.On("ClearByPrefix", mock.Anything, "articles:").Return(4, nil)

		h := NewAdminHandler(nil, nil, c)

		req := httptest.NewRequest(http.MethodPost, "/api/cache/clear",
			strings.NewReader(`{"prefix":"articles:"}`))
		req = withUser(req, resolvedUser(true, model.Permissions{}, model.AllSites...))
		rec := httptest.NewRecorder()
		h.ClearCache(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		assert.JSONEq(t, `{"cleared":4}`, string(env.Data))
	})

	t.Run("empty body clears everything", func(t *testing.T) {
		c := new(mockCache)
		c.On("ClearByPrefix", mock.Anything, "").Return(11, nil)

		h := NewAdminHandler(nil, nil, c)

		req := httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil)
		req = withUser(req, resolvedUser(true, model.Permissions{}, model.AllSites...))
		rec := httptest.NewRecorder()
		h.ClearCache(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		c.AssertCalled(t, "ClearByPrefix", mock.Anything, "")
	})
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	cfg := &config.Config{DiscordWebhookURLPublic: "https://discord.com/api/webhooks/x"}

	t.Run("reports ok when all bindings respond", func(t *testing.T) {
		h := NewHealthHandler(cfg, stubPinger{}, stubPinger{})

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)

		var data struct {
			Status   string          `json:"status"`
			Bindings map[string]bool `json:"bindings"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "ok", data.Status)
		assert.True(t, data.Bindings["database"])
		assert.True(t, data.Bindings["discordPublic"])
		assert.False(t, data.Bindings["discordSalon"])
	})

	t.Run("degrades when redis is down", func(t *testing.T) {
		h := NewHealthHandler(cfg, stubPinger{}, stubPinger{err: errors.New("connection refused")})

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		h.Health(rec, req)

		var data struct {
			Status   string          `json:"status"`
			Bindings map[string]bool `json:"bindings"`
		}
		env := decodeEnvelope(t, rec)
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "degraded", data.Status)
		assert.False(t, data.Bindings["redis"])
	})
}
