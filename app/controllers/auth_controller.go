// Package controllers holds the HTTP handlers. Each controller depends on a
// narrow interface over the store or a service and speaks JSON through
// pkg/ctx.
package controllers

import (
	"context"
	"net/http"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/schema"
	"github.com/decorhub/decorhub/app/services"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/bind"
	"github.com/decorhub/decorhub/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Login POST /api/login
func (a *AuthController) Login(c *ctx.Context) {
	in, err := schema.DecodeLogin(bind.Body(c.R))
	if err != nil {
		c.Fail(err)
		return
	}
	u, err := a.auth.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}

	sess := c.Session()
	a.auth.StartSession(sess, u)
	if err := sess.Save(c.Context(), c.W); err != nil {
		c.Fail(err)
		return
	}
	c.Logger().Info("user logged in", "user_id", u.ID)
	c.OK(u)
}

// Logout POST /api/logout. Logging out without a session is not an error.
func (a *AuthController) Logout(c *ctx.Context) {
	sess := c.Session()
	a.auth.EndSession(sess)
	if err := sess.Save(c.Context(), c.W); err != nil {
		c.Fail(err)
		return
	}
	c.Message(http.StatusOK, "Logged out")
}

// User GET /api/user
func (a *AuthController) User(c *ctx.Context) {
	u, found, err := a.auth.CurrentUser(c.R)
	if err != nil {
		c.Fail(err)
		return
	}
	if !found {
		c.Fail(apperr.ErrUnauthenticated)
		return
	}
	c.OK(u)
}

type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

type UserController struct {
	users UserLister
}

func NewUserController(users UserLister) *UserController {
	return &UserController{users: users}
}

// Index GET /api/admin/users
func (u *UserController) Index(c *ctx.Context) {
	users, err := u.users.ListUsers(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.OK(users)
}
