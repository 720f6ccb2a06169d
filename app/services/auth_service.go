// Package services holds the application logic that sits between the HTTP
// controllers and the store: authentication and inquiry intake.
package services

import (
	"context"
	"net/http"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/auth"
	"github.com/decorhub/decorhub/pkg/logger"
	"github.com/decorhub/decorhub/pkg/metrics"
	"github.com/decorhub/decorhub/pkg/middleware"
	"github.com/decorhub/decorhub/pkg/session"
)

// Users is the slice of the store the auth service needs.
type Users interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	FindUserByID(ctx context.Context, id uint) (models.User, bool, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, bool, error)
}

var errBadCredentials = &apperr.AuthenticationError{Message: "Invalid username or password"}

type AuthService struct {
	users Users
}

func NewAuthService(users Users) *AuthService {
	return &AuthService{users: users}
}

// Login checks the credentials. An unknown username and a wrong password
// fail the same way and cost the same bcrypt work.
func (s *AuthService) Login(ctx context.Context, in schema.LoginInput) (models.User, error) {
	u, found, err := s.users.FindUserByUsername(ctx, in.Username)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		auth.BurnComparison(in.Password)
		metrics.RecordLogin(false)
		return models.User{}, errBadCredentials
	}

	ok, err := auth.CheckPassword(u.Password, in.Password)
	if err != nil {
		logger.WithCtx(ctx).Error("login: stored hash unusable", "user_id", u.ID, "error", err)
	}
	if !ok {
		metrics.RecordLogin(false)
		return models.User{}, errBadCredentials
	}

	metrics.RecordLogin(true)
	return u, nil
}

// StartSession rotates the session id and binds it to u.
func (s *AuthService) StartSession(sess *session.Session, u models.User) {
	sess.Regenerate()
	sess.Set(session.UserIDKey, u.ID)
}

// EndSession destroys the session server-side; Save then expires the cookie.
func (s *AuthService) EndSession(sess *session.Session) {
	sess.Invalidate()
}

// CurrentUser resolves the session's user. A session pointing at a user who
// no longer exists counts as anonymous.
func (s *AuthService) CurrentUser(r *http.Request) (models.User, bool, error) {
	id, ok := session.FromCtx(r).GetUint(session.UserIDKey)
	if !ok {
		return models.User{}, false, nil
	}
	return s.users.FindUserByID(r.Context(), id)
}

// Guard is the middleware.Guard backed by the cookie session.
func (s *AuthService) Guard(r *http.Request) middleware.AuthState {
	u, found, err := s.CurrentUser(r)
	if err != nil {
		return middleware.AuthState{Err: err}
	}
	if !found {
		return middleware.AuthState{}
	}
	return middleware.AuthState{Principal: &middleware.Principal{ID: u.ID, Username: u.Username, Role: u.Role}}
}

// CreateUser hashes the password and stores the account.
func (s *AuthService) CreateUser(ctx context.Context, in schema.UserInput) (models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.CreateUser(ctx, models.User{Username: in.Username, Password: hash, Role: in.Role})
}
