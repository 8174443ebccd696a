package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/creators-jp/portal-server/internal/audit"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/repository"
	"github.com/creators-jp/portal-server/internal/util"
)

const minPasswordLength = 8

// UserInput carries the fields an administrator may set on a user.
// Nil pointers on update mean "leave unchanged".
type UserInput struct {
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	DisplayName string             `json:"displayName"`
	IsAdmin     *bool              `json:"isAdmin"`
	IsActive    *bool              `json:"isActive"`
	Permissions *model.Permissions `json:"permissions"`
	Sites       []model.Site       `json:"sites"`
}

type UserService struct {
	db          TxRunner
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	auth        *AuthService
}

func NewUserService(db TxRunner, userRepo repository.UserRepository, sessionRepo repository.SessionRepository, auth *AuthService) *UserService {
	return &UserService{db: db, userRepo: userRepo, sessionRepo: sessionRepo, auth: auth}
}

// List returns every user with the admin override already applied.
func (s *UserService) List(ctx context.Context) ([]*model.ResolvedUser, error) {
	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	users := make([]*model.ResolvedUser, 0, len(ids))
	for _, id := range ids {
		resolved, err := s.auth.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if resolved != nil {
			users = append(users, resolved)
		}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.ResolvedUser, error) {
	resolved, err := s.auth.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, apperrors.NotFound("User")
	}
	return resolved, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*model.ResolvedUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.ValidationError("A valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.ValidationError("Password must be at least 8 characters")
	}
	for _, site := range input.Sites {
		if !model.IsValidSite(string(site)) {
			return nil, apperrors.InvalidSite(string(site))
		}
	}

	existing, err := s.userRepo.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.ValidationError("A user with this email already exists")
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to hash password", err)
	}

	params := model.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
	}
	if name := strings.TrimSpace(input.DisplayName); name != "" {
		params.DisplayName = &name
	}
	if input.IsAdmin != nil {
		params.IsAdmin = *input.IsAdmin
	}

	var created *model.User
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.userRepo.WithTx(tx)

		user, err := repo.Create(ctx, params)
		if err != nil {
			return err
		}
		created = user

		perms := model.Permissions{}
		if input.Permissions != nil {
			perms = *input.Permissions
		}
		if err := repo.UpsertPermissions(ctx, user.ID, perms); err != nil {
			return err
		}
		return repo.ReplaceSites(ctx, user.ID, input.Sites)
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return s.auth.Resolve(ctx, created.ID)
}

// Update applies the given changes. A non-empty password replaces the
// credential and revokes every session the user holds.
func (s *UserService) Update(ctx context.Context, id string, input UserInput) (*model.ResolvedUser, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}

	if input.Password != "" && len(input.Password) < minPasswordLength {
		return nil, apperrors.ValidationError("Password must be at least 8 characters")
	}
	for _, site := range input.Sites {
		if !model.IsValidSite(string(site)) {
			return nil, apperrors.InvalidSite(string(site))
		}
	}

	params := model.UpdateUserParams{
		IsAdmin:  input.IsAdmin,
		IsActive: input.IsActive,
	}
	if name := strings.TrimSpace(input.DisplayName); name != "" {
		params.DisplayName = &name
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.userRepo.WithTx(tx)

		if err := repo.Update(ctx, id, params); err != nil {
			return err
		}
		if input.Permissions != nil {
			if err := repo.UpsertPermissions(ctx, id, *input.Permissions); err != nil {
				return err
			}
		}
		if input.Sites != nil {
			if err := repo.ReplaceSites(ctx, id, input.Sites); err != nil {
				return err
			}
		}
		if input.Password != "" {
			hash, err := util.HashPassword(input.Password)
			if err != nil {
				return err
			}
			if err := repo.UpdatePasswordHash(ctx, id, hash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if input.Password != "" {
		if err := s.sessionRepo.DeleteAllForUser(ctx, id); err != nil {
			return nil, apperrors.Database(err)
		}
		audit.Log(ctx, audit.Event{Type: audit.EventPasswordChange, UserID: id, Email: user.Email})
	}

	return s.auth.Resolve(ctx, id)
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id, callerID string) error {
	if id == callerID {
		return apperrors.Forbidden("You cannot delete your own account")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	if err := s.sessionRepo.DeleteAllForUser(ctx, id); err != nil {
		return apperrors.Database(err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperrors.Database(err)
	}
	return nil
}
