package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/creators-jp/portal-server/internal/cache"
	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/discord"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/report"
	"github.com/creators-jp/portal-server/internal/repository"
	"github.com/creators-jp/portal-server/internal/scraper"
)

// Mock repositories

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) error {
	args := m.Called(ctx, id, params)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) FindPermissions(ctx context.Context, userID string) (*model.PermissionRow, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PermissionRow), args.Error(1)
}

func (m *mockUserRepo) UpsertPermissions(ctx context.Context, userID string, perms model.Permissions) error {
	args := m.Called(ctx, userID, perms)
	return args.Error(0)
}

func (m *mockUserRepo) FindSites(ctx context.Context, userID string) ([]model.Site, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Site), args.Error(1)
}

func (m *mockUserRepo) ReplaceSites(ctx context.Context, userID string, sites []model.Site) error {
	args := m.Called(ctx, userID, sites)
	return args.Error(0)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, id, userID string, expiresAt time.Time) (*model.Session, error) {
	args := m.Called(ctx, id, userID, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindValid(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockArticleRepo struct {
	mock.Mock
}

func (m *mockArticleRepo) FindFiltered(ctx context.Context, filter model.ArticleFilter) ([]model.Article, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Article), args.Error(1)
}

func (m *mockArticleRepo) CountFiltered(ctx context.Context, filter model.ArticleFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockArticleRepo) Facets(ctx context.Context, site model.Site) (*model.ArticleFacets, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArticleFacets), args.Error(1)
}

func (m *mockArticleRepo) MaxPublishedDate(ctx context.Context, site model.Site) (time.Time, bool, error) {
	args := m.Called(ctx, site)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *mockArticleRepo) Upsert(ctx context.Context, params model.UpsertArticleParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockArticleRepo) DeleteBySite(ctx context.Context, site model.Site) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

func (m *mockArticleRepo) CountBySite(ctx context.Context, site model.Site) (int, error) {
	args := m.Called(ctx, site)
	return args.Int(0), args.Error(1)
}

func (m *mockArticleRepo) FindSyncStatus(ctx context.Context, site model.Site) (*model.SyncStatus, error) {
	args := m.Called(ctx, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncStatus), args.Error(1)
}

func (m *mockArticleRepo) UpsertSyncStatus(ctx context.Context, site model.Site, totalCount int) error {
	args := m.Called(ctx, site, totalCount)
	return args.Error(0)
}

type mockSummaryRepo struct {
	mock.Mock
}

func (m *mockSummaryRepo) ListBySite(ctx context.Context, site model.Site, limit int) ([]model.MonthlySummary, error) {
	args := m.Called(ctx, site, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MonthlySummary), args.Error(1)
}

func (m *mockSummaryRepo) Upsert(ctx context.Context, params model.UpsertSummaryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockSummaryRepo) MarkNotified(ctx context.Context, site model.Site, yearMonth string) error {
	args := m.Called(ctx, site, yearMonth)
	return args.Error(0)
}

type mockNotificationLogRepo struct {
	mock.Mock
}

func (m *mockNotificationLogRepo) Append(ctx context.Context, site model.Site, typ model.NotificationType, status model.NotificationStatus, message *string) error {
	args := m.Called(ctx, site, typ, status, message)
	return args.Error(0)
}

func (m *mockNotificationLogRepo) ListBySite(ctx context.Context, site model.Site, limit int) ([]model.NotificationLog, error) {
	args := m.Called(ctx, site, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NotificationLog), args.Error(1)
}

// Mock collaborators

// mockTxRunner runs the transaction body directly; repository mocks
// ignore the nil tx.
type mockTxRunner struct{}

func (mockTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, siteURL string) (*scraper.Result, error) {
	args := m.Called(ctx, siteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scraper.Result), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (*cache.Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, data any, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type mockWebhookSender struct {
	mock.Mock
}

func (m *mockWebhookSender) Send(ctx context.Context, webhookURL string, message discord.Message) error {
	args := m.Called(ctx, webhookURL, message)
	return args.Error(0)
}

type mockGAFetcher struct {
	mock.Mock
}

func (m *mockGAFetcher) FetchReport(ctx context.Context, propertyID string, dr report.DateRange) (*report.GAReport, error) {
	args := m.Called(ctx, propertyID, dr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.GAReport), args.Error(1)
}

type mockGSCFetcher struct {
	mock.Mock
}

func (m *mockGSCFetcher) FetchReport(ctx context.Context, siteURL string, dr report.DateRange) (*report.GSCReport, error) {
	args := m.Called(ctx, siteURL, dr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.GSCReport), args.Error(1)
}
