// Package services contains the application services of the client: session
// management, assignment browsing, and the submission lifecycle (resolution
// plus upload routing).
package services

import (
	"context"
	"fmt"

	"github.com/dkarpov/handin/internal/gateway"
	"github.com/dkarpov/handin/internal/identity"
	"github.com/dkarpov/handin/internal/logging"
	"github.com/dkarpov/handin/internal/models"
)

// AuthService owns the session keys of the identity store: it writes them
// on login and clears them on logout. No other component writes them.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error

	// CheckSession reports whether a persisted session is still accepted
	// by the server, returning the stored username when it is.
	CheckSession(ctx context.Context) (string, bool)

	CurrentUser(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error)
}

type authService struct {
	gw  gateway.Gateway
	ids identity.Store
	log logging.Logger
}

func NewAuthService(gw gateway.Gateway, ids identity.Store, log logging.Logger) AuthService {
	return &authService{gw: gw, ids: ids, log: log.With("service", "auth")}
}

// Login exchanges credentials for a token, then derives the numeric user id
// from the user lookup route (the login response carries only the token).
// All three session keys are persisted together; if the id cannot be
// derived the half-written session is rolled back.
func (a *authService) Login(ctx context.Context, username string, password []byte) (*models.User, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}

	token, err := a.gw.Login(ctx, username, string(password))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := a.ids.Set(ctx, identity.KeyToken, token); err != nil {
		return nil, err
	}

	user, err := a.gw.FindUser(ctx, username)
	if err != nil {
		// Without a user id the session is unusable; drop the token.
		if clearErr := a.ids.Clear(ctx, identity.SessionKeys...); clearErr != nil {
			a.log.Error(ctx, "failed to roll back partial session", "error", clearErr)
		}
		return nil, fmt.Errorf("resolve user id: %w", err)
	}

	if err := a.ids.Set(ctx, identity.KeyUsername, user.Username); err != nil {
		return nil, err
	}
	if err := identity.SetInt64(ctx, a.ids, identity.KeyUserID, user.ID); err != nil {
		return nil, err
	}

	a.log.Info(ctx, "logged in", "username", user.Username, "user_id", user.ID)
	return user, nil
}

// Logout tells the server first, but clears the local session regardless of
// the outcome; a dead server must not pin a session on the device.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.gw.Logout(ctx); err != nil {
		a.log.Warn(ctx, "server logout failed, clearing local session anyway", "error", err)
	}
	if err := a.ids.Clear(ctx, identity.SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func (a *authService) CheckSession(ctx context.Context) (string, bool) {
	username, err := a.ids.Get(ctx, identity.KeyUsername)
	if err != nil || username == "" {
		return "", false
	}
	if err := a.gw.CheckToken(ctx); err != nil {
		return "", false
	}
	return username, true
}

func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	username, err := a.ids.Get(ctx, identity.KeyUsername)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, gateway.ErrUnauthenticated
	}
	return a.gw.FindUser(ctx, username)
}

func (a *authService) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	user, err := a.gw.UpdateUser(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	// A username change must be reflected locally or the next lookup
	// resolves the wrong account.
	if upd.Username != "" {
		if err := a.ids.Set(ctx, identity.KeyUsername, user.Username); err != nil {
			return nil, err
		}
	}
	return user, nil
}
