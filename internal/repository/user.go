package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creators-jp/portal-server/internal/database"
	"github.com/creators-jp/portal-server/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
	ListIDs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	Update(ctx context.Context, id string, params model.UpdateUserParams) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error

	FindPermissions(ctx context.Context, userID string) (*model.PermissionRow, error)
	UpsertPermissions(ctx context.Context, userID string, perms model.Permissions) error
	FindSites(ctx context.Context, userID string) ([]model.Site, error)
	ReplaceSites(ctx context.Context, userID string, sites []model.Site) error

	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = $1 AND is_active = TRUE
	`, strings.ToLower(email))
	return HandleNotFound(&user, err)
}

func (r *userRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM users ORDER BY created_at DESC
	`)
	return ids, err
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (id, email, password_hash, display_name, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, uuid.NewString(), strings.ToLower(params.Email), params.PasswordHash, params.DisplayName, params.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, id string, params model.UpdateUserParams) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			display_name = COALESCE($2, display_name),
			is_admin = COALESCE($3, is_admin),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1
	`, id, params.DisplayName, params.IsAdmin, params.IsActive)
	return err
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHash)
	return err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	// Permissions, site access and sessions go with it via ON DELETE CASCADE.
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *userRepo) FindPermissions(ctx context.Context, userID string) (*model.PermissionRow, error) {
	var row model.PermissionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT user_id, can_dashboard, can_ga4, can_gsc, can_articles
		FROM user_permissions WHERE user_id = $1
	`, userID)
	return HandleNotFound(&row, err)
}

func (r *userRepo) UpsertPermissions(ctx context.Context, userID string, perms model.Permissions) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, can_dashboard, can_ga4, can_gsc, can_articles)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			can_dashboard = EXCLUDED.can_dashboard,
			can_ga4 = EXCLUDED.can_ga4,
			can_gsc = EXCLUDED.can_gsc,
			can_articles = EXCLUDED.can_articles,
			updated_at = NOW()
	`, userID, perms.Dashboard, perms.GA4, perms.GSC, perms.Articles)
	return err
}

func (r *userRepo) FindSites(ctx context.Context, userID string) ([]model.Site, error) {
	sites := []model.Site{}
	err := r.db.SelectContext(ctx, &sites, `
		SELECT site FROM user_site_access WHERE user_id = $1 ORDER BY site
	`, userID)
	return sites, err
}

func (r *userRepo) ReplaceSites(ctx context.Context, userID string, sites []model.Site) error {
	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM user_site_access WHERE user_id = $1
	`, userID); err != nil {
		return err
	}

	for _, site := range sites {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO user_site_access (user_id, site) VALUES ($1, $2)
		`, userID, site); err != nil {
			return err
		}
	}
	return nil
}
