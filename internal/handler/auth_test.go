package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Qiyd81/flightsurety-2/internal/config"
	"github.com/Qiyd81/flightsurety-2/internal/repository"
	"github.com/Qiyd81/flightsurety-2/internal/utils"
)

func newAuth(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	a := NewAuthHandler(cfg, owner, repository.NewAccountRepo(db), repository.NewTokenRepo(db), seed)
	e := echo.New()
	e.POST("/v1/auth/register", a.Register)
	e.POST("/v1/auth/login", a.Login)
	e.POST("/v1/auth/refresh", a.Refresh)
	e.POST("/v1/auth/logout", a.Logout)
	return e, mock
}

func decodeAuth(t *testing.T, body []byte) authResp {
	t.Helper()
	var out authResp
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRegisterIssuesAccountRole(t *testing.T) {
	e, mock := newAuth(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(passenger.String(), sqlmock.AnyArg(), repository.RoleAccount).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs(passenger.String(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := do(e, http.MethodPost, "/v1/auth/register", `{"account":"`+passenger.String()+`","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeAuth(t, rec.Body.Bytes())
	assert.Equal(t, repository.RoleAccount, resp.Account.Role)

	claims, err := utils.ParseAccessToken(jwtSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, passenger, claims.Account)
	assert.Equal(t, repository.RoleAccount, claims.Role)
}

// Operator accounts are provisioned from config; registering them over
// HTTP must not touch the database.
func TestRegisterRefusesOperatorAccounts(t *testing.T) {
	e, _ := newAuth(t)
	for _, acc := range []string{owner.String(), seed.String()} {
		rec := do(e, http.MethodPost, "/v1/auth/register", `{"account":"`+acc+`","password":"pw"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, acc)
		assert.NotContains(t, rec.Body.String(), "token")
	}
}

func TestLoginGrantsOwnerOnlyToOwner(t *testing.T) {
	e, mock := newAuth(t)
	hash, err := utils.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	row := func(acc string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"account", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(acc, hash, repository.RoleOwner, true, now, now)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).WithArgs(owner.String()).WillReturnRows(row(owner.String()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).WillReturnResult(sqlmock.NewResult(1, 1))
	rec := do(e, http.MethodPost, "/v1/auth/login", `{"account":"`+owner.String()+`","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.RoleOwner, decodeAuth(t, rec.Body.Bytes()).Account.Role)

	// A stored OWNER role on any other account is not honoured.
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).WithArgs(passenger.String()).WillReturnRows(row(passenger.String()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).WillReturnResult(sqlmock.NewResult(1, 1))
	rec = do(e, http.MethodPost, "/v1/auth/login", `{"account":"`+passenger.String()+`","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.RoleAccount, decodeAuth(t, rec.Body.Bytes()).Account.Role)
}

func TestRegisterRejects(t *testing.T) {
	e, mock := newAuth(t)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/register", `{"account":"bob","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/register", `{"account":"`+passenger.String()+`"}`).Code)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	rec := do(e, http.MethodPost, "/v1/auth/register", `{"account":"`+passenger.String()+`","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func credentialRows(t *testing.T, password, role string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"account", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(passenger.String(), hash, role, active, now, now)
}

func TestLogin(t *testing.T) {
	e, mock := newAuth(t)
	login := `{"account":"` + passenger.String() + `","password":"pw"}`

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account=?")).
		WithArgs(passenger.String()).
		WillReturnRows(credentialRows(t, "pw", repository.RoleAccount, true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	rec := do(e, http.MethodPost, "/v1/auth/login", login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decodeAuth(t, rec.Body.Bytes()).Refresh.Token, 96)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WillReturnRows(credentialRows(t, "other", repository.RoleAccount, true))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", login).Code)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WillReturnRows(credentialRows(t, "pw", repository.RoleAccount, false))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", login).Code, "inactive")

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WillReturnError(sql.ErrNoRows)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/login", login).Code)
}

func refreshRow(expires time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"account", "expires_at", "revoked_at"}).
		AddRow(passenger.String(), expires, nil)
}

func TestRefreshRotates(t *testing.T) {
	e, mock := newAuth(t)
	hash := utils.HashRefreshRaw("old-token")

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs(hash).
		WillReturnRows(refreshRow(time.Now().Add(time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=?")).
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WillReturnRows(credentialRows(t, "pw", repository.RoleAccount, true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"old-token"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, "old-token", decodeAuth(t, rec.Body.Bytes()).Refresh.Token)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WillReturnRows(refreshRow(time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"old-token"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/refresh", `{}`).Code)
}

func TestLogout(t *testing.T) {
	e, mock := newAuth(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WillReturnRows(refreshRow(time.Now().Add(time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"tok"}`).Code)

	tok, err := utils.NewAccessToken(jwtSecret, passenger, repository.RoleAccount, 5)
	require.NoError(t, err)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=NOW() WHERE account=?")).
		WithArgs(passenger.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	req := newRequest(http.MethodPost, "/v1/auth/logout", "")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusNoContent, serve(e, req).Code)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/v1/auth/logout", "").Code)
}
