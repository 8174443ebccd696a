package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/creators-jp/portal-server/internal/audit"
	"github.com/creators-jp/portal-server/internal/config"
	apperrors "github.com/creators-jp/portal-server/internal/errors"
	"github.com/creators-jp/portal-server/internal/model"
	"github.com/creators-jp/portal-server/internal/repository"
	"github.com/creators-jp/portal-server/internal/util"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) *AuthService {
	return &AuthService{userRepo: userRepo, sessionRepo: sessionRepo}
}

// Login verifies the credentials and opens a fixed-lifetime session.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.ResolvedUser, string, error) {
	user, err := s.userRepo.FindActiveByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Database(err)
	}
	if user == nil || !util.VerifyPassword(password, user.PasswordHash) {
		audit.Log(ctx, audit.Event{Type: audit.EventLoginFailure, Email: email})
		return nil, "", apperrors.AuthInvalid("Invalid email or password")
	}

	sessionID, err := util.GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate session id: %w", err)
	}

	expiresAt := time.Now().Add(config.SessionTTL)
	if _, err := s.sessionRepo.Create(ctx, sessionID, user.ID, expiresAt); err != nil {
		return nil, "", apperrors.Database(err)
	}

	resolved, err := s.Resolve(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	audit.Log(ctx, audit.Event{Type: audit.EventLoginSuccess, UserID: user.ID, Email: user.Email})
	log.Info().Str("user_id", user.ID).Time("expires_at", expiresAt).Msg("session created")

	return resolved, sessionID, nil
}

// Logout deletes the session if it exists; a missing session is not an
// error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return apperrors.Database(err)
	}
	audit.Log(ctx, audit.Event{Type: audit.EventLogout})
	return nil
}

// ValidateSession returns the session if it exists and has not
// expired; expiry is never extended.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.FindValid(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return session, nil
}

// Resolve loads a user with the admin override applied: admins get
// every permission and membership in every site, regardless of stored
// rows. Returns nil for an unknown user id.
func (s *AuthService) Resolve(ctx context.Context, userID string) (*model.ResolvedUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, nil
	}

	resolved := &model.ResolvedUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}

	if user.IsAdmin {
		resolved.Permissions = model.Permissions{Dashboard: true, GA4: true, GSC: true, Articles: true}
		resolved.Sites = append([]model.Site{}, model.AllSites...)
		return resolved, nil
	}

	perms, err := s.userRepo.FindPermissions(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if perms != nil {
		resolved.Permissions = model.Permissions{
			Dashboard: perms.CanDashboard,
			GA4:       perms.CanGA4,
			GSC:       perms.CanGSC,
			Articles:  perms.CanArticles,
		}
	}

	sites, err := s.userRepo.FindSites(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	resolved.Sites = sites

	return resolved, nil
}
