package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/config"
	"github.com/Qiyd81/flightsurety-2/internal/middleware"
	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
	"github.com/Qiyd81/flightsurety-2/internal/utils"
)

// AuthHandler issues API credentials for platform accounts.  Self
// registration always yields the ACCOUNT role.  Owner and the Reserved
// accounts are provisioned by the operator and cannot register; only Owner
// is ever issued the OWNER role.
type AuthHandler struct {
	Cfg      config.Config
	Owner    model.Account
	Reserved map[model.Account]bool
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, owner model.Account, a *repository.AccountRepo, t *repository.TokenRepo, reserved ...model.Account) *AuthHandler {
	h := &AuthHandler{Cfg: cfg, Owner: owner, Reserved: map[model.Account]bool{owner: true}, Accounts: a, Tokens: t}
	for _, acc := range reserved {
		h.Reserved[acc] = true
	}
	return h
}

type credentialsReq struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type accountPart struct {
	Account model.Account `json:"account"`
	Role    string        `json:"role"`
}

type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

func (r credentialsReq) parse() (model.Account, error) {
	acc, err := model.ParseAccount(r.Account)
	if err != nil || r.Password == "" {
		return "", errors.New("account and password required")
	}
	if err := utils.CheckPassword(r.Password); err != nil {
		return "", err
	}
	return acc, nil
}

// roleFor trusts a stored OWNER role only for the configured owner.
func (h *AuthHandler) roleFor(acc model.Account, stored string) string {
	if stored == repository.RoleOwner && acc == h.Owner {
		return repository.RoleOwner
	}
	return repository.RoleAccount
}

// issue signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issue(ctx context.Context, acc model.Account, role string) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, acc, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		Account: accountPart{Account: acc, Role: role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register stores credentials for an account and logs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	acc, err := req.parse()
	if err != nil {
		return badRequest(c, err.Error())
	}
	if h.Reserved[acc] {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is provisioned by the operator"})
	}
	role := repository.RoleAccount

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.Create(ctx, acc, req.Password, role, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	resp, err := h.issue(ctx, acc, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	acc, err := req.parse()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	cred, err := h.Accounts.GetByAccount(ctx, acc)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !cred.IsActive || !utils.VerifyPassword(cred.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	resp, err := h.issue(ctx, acc, h.roleFor(acc, cred.Role))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	acc, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	cred, err := h.Accounts.GetByAccount(ctx, acc)
	if err != nil || !cred.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	resp, err := h.issue(ctx, acc, h.roleFor(acc, cred.Role))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every token of the
// bearer's account when no body token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return badRequest(c, "refresh_token or bearer token required")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	if err := h.Tokens.RevokeAll(ctx, claims.Account); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the identity of the bearer.
func (h *AuthHandler) Me(c echo.Context) error {
	acc, ok := middleware.Account(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, accountPart{Account: acc, Role: middleware.Role(c)})
}
