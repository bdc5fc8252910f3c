package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/personal-finance-api/internal/auth"
	"github.com/iliyamo/personal-finance-api/internal/config"
	"github.com/iliyamo/personal-finance-api/internal/middleware"
	"github.com/iliyamo/personal-finance-api/internal/model"
	"github.com/iliyamo/personal-finance-api/internal/repository"
)

// refreshCookieName is the only transport for refresh tokens. The token
// never appears in a JSON body.
const refreshCookieName = "refreshToken"

// AuthHandler bundles dependencies for the auth and profile endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Codec      *auth.Codec
	Hasher     *auth.Hasher
	Users      repository.UserStore
	Categories repository.CategoryStore
}

func NewAuthHandler(cfg config.Config, codec *auth.Codec, hasher *auth.Hasher,
	users repository.UserStore, categories repository.CategoryStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Codec: codec, Hasher: hasher, Users: users, Categories: categories}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type updateMeReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type authResp struct {
	AccessToken string           `json:"accessToken"`
	User        model.PublicUser `json:"user"`
}

// Register creates an account: password policy, duplicate check, hash,
// create, seed default categories, then hand out a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	hash, err := h.Hasher.Hash(ctx, req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u := &model.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := h.Users.Create(ctx, u); err != nil {
		// The unique index catches registrations racing the lookup above.
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if err := h.Categories.CreateDefaults(ctx, u.ID); err != nil {
		// The account exists; missing starter categories is not worth a 500.
		c.Logger().Warnf("register: seed default categories for %s: %v", u.ID, err)
	}

	return h.respondWithTokens(c, http.StatusCreated, u)
}

// Login verifies credentials and hands out a fresh token pair. Unknown
// email and wrong password produce the same response, and the unknown
// path burns a dummy hash verification so the two take similar time.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.Hasher.VerifyDummy(req.Password)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !h.Hasher.Verify(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.respondWithTokens(c, http.StatusOK, u)
}

// Refresh mints a new access token from the refresh cookie. The refresh
// token itself is never rotated here; when it expires the client goes
// through login again. Every failure is a uniform 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	claims, err := h.Codec.VerifyRefresh(cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	access, err := h.Codec.MintAccess(u.ID, u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access})
}

// Logout clears the refresh cookie. The current access token stays valid
// until its natural expiry; with a 15 minute lifetime that window is the
// accepted trade-off for not running a blacklist.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the sanitized identity attached by the guard.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown identity"})
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe changes name, email and/or password. A new password runs the
// full policy and is re-hashed; a new email must not collide.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Email == nil && req.Password == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
		}
		u.Name = name
	}
	if req.Email != nil {
		email := repository.NormalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
		}
		u.Email = email
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		hash, err := h.Hasher.Hash(ctx, *req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		u.PasswordHash = hash
	}

	if err := h.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// DeleteMe removes the account; categories and transactions cascade.
func (h *AuthHandler) DeleteMe(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, middleware.UserID(c)); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

// respondWithTokens mints the pair, sets the refresh cookie and writes
// the body with the access token and sanitized user.
func (h *AuthHandler) respondWithTokens(c echo.Context, status int, u *model.User) error {
	access, err := h.Codec.MintAccess(u.ID, u.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	refresh, err := h.Codec.MintRefresh(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	h.setRefreshCookie(c, refresh)
	return c.JSON(status, authResp{AccessToken: access, User: u.Public()})
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/v1/auth",
		MaxAge:   int(h.Cfg.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
