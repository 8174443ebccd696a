package handler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/creators-jp/portal-server/internal/cache"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/repository"
)

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
	return m.Called(ctx, id, params).Error(0)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) FindPermissions(ctx context.Context, userID string) (*model.PermissionRow, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PermissionRow), args.Error(1)
}

func (m *mockUserRepo) UpsertPermissions(ctx context.Context, userID string, perms model.Permissions) error {
	return m.Called(ctx, userID, perms).Error(0)
}

func (m *mockUserRepo) FindSites(ctx context.Context, userID string) ([]model.Site, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Site), args.Error(1)
}

func (m *mockUserRepo) ReplaceSites(ctx context.Context, userID string, sites []model.Site) error {
	return m.Called(ctx, userID, sites).Error(0)
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
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
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
	return m.Called(ctx, params).Error(0)
}

func (m *mockArticleRepo) DeleteBySite(ctx context.Context, site model.Site) error {
	return m.Called(ctx, site).Error(0)
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
	return m.Called(ctx, site, totalCount).Error(0)
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
	return m.Called(ctx, key, data, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	args := m.Called(ctx, prefix)
	return args.Int(0), args.Error(1)
}
