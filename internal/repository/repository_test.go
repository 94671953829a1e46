package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/surety"
	"github.com/Qiyd81/flightsurety-2/internal/utils"
)

var passenger = model.DeriveAccount("passenger")

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestAccountCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (account, password_hash, role) VALUES (?,?,?)")).
		WithArgs(passenger.String(), sqlmock.AnyArg(), RoleAccount).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), passenger, "s3cret!", RoleAccount, bcrypt.MinCost))
}

func TestAccountCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), passenger, "s3cret!", RoleAccount, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestAccountGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	hash, err := utils.HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE account=?")).
		WithArgs(passenger.String()).
		WillReturnRows(sqlmock.NewRows([]string{"account", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(passenger.String(), hash, RoleOwner, true, now, now))

	c, err := repo.GetByAccount(context.Background(), passenger)
	require.NoError(t, err)
	assert.Equal(t, passenger, c.Account)
	assert.Equal(t, RoleOwner, c.Role)
	assert.True(t, utils.VerifyPassword(c.PasswordHash, "s3cret!"))
}

func TestAccountProvisionAndDisable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepo(db)
	owner := model.DeriveAccount("owner")
	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE password_hash=VALUES(password_hash), role=VALUES(role), is_active=1")).
		WithArgs(owner.String(), "$2a$hash", RoleOwner).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET is_active=0 WHERE account=?")).
		WithArgs(owner.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Provision(context.Background(), owner, "$2a$hash", RoleOwner))
	require.NoError(t, repo.Disable(context.Background(), owner))
}

func TestTokenValidate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()
	cols := []string{"account", "expires_at", "revoked_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(passenger.String(), time.Now().Add(time.Hour), nil))
	got, err := repo.ValidateRefresh(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, passenger, got)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(passenger.String(), time.Now().Add(-time.Hour), nil))
	_, err = repo.ValidateRefresh(ctx, "expired")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash=?")).
		WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(passenger.String(), time.Now().Add(time.Hour), time.Now()))
	_, err = repo.ValidateRefresh(ctx, "revoked")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPayoutTransfer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPayoutRepo(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payouts (id, account, amount_wei) VALUES (?,?,?)")).
		WithArgs(sqlmock.AnyArg(), passenger.String(), "1500000000000000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payout_totals")).
		WithArgs(passenger.String(), "1500000000000000000").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	amount := decimal.RequireFromString("1500000000000000000")
	require.NoError(t, repo.Transfer(context.Background(), passenger, amount))
}

func TestPayoutTransferRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPayoutRepo(db)
	boom := errors.New("lock wait timeout")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payouts")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payout_totals")).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.Transfer(context.Background(), passenger, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, boom)
}

func TestPayoutList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPayoutRepo(db)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM payouts WHERE account=?")).
		WithArgs(passenger.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account", "amount_wei", "created_at"}).
			AddRow("p-2", passenger.String(), "4", now).
			AddRow("p-1", passenger.String(), "1500000000000000000", now.Add(-time.Minute)))

	got, err := repo.ListByAccount(context.Background(), passenger)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].Amount.String())
	assert.Equal(t, "p-1", got[1].ID)
}

func TestPayoutTotals(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPayoutRepo(db)
	other := model.DeriveAccount("other")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT account, total_wei FROM payout_totals")).
		WillReturnRows(sqlmock.NewRows([]string{"account", "total_wei"}).
			AddRow(passenger.String(), "1500000000000000000").
			AddRow(other.String(), "7"))

	got, err := repo.Totals(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1500000000000000000", got[passenger].String())
	assert.Equal(t, "7", got[other].String())
}

func TestJournalEmit(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJournalRepo(db)
	key := model.FlightKey{Airline: model.DeriveAccount("airline"), Code: "ND1309", Timestamp: 1700000000}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev := surety.Event{ID: "ev-1", Seq: 9, Type: surety.EventFlightFinalized, At: at, Account: key.Airline, Flight: &key, Status: model.StatusLateAirline}

	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO surety_events")).
		WithArgs("ev-1", uint64(9), "flight.finalized", key.Airline.String(), key.String(), sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Emit(context.Background(), ev))

	noFlight := surety.Event{ID: "ev-2", Seq: 10, Type: surety.EventPassengerWithdrew, At: at, Account: passenger}
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO surety_events")).
		WithArgs("ev-2", uint64(10), "passenger.withdrew", passenger.String(), nil, sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Emit(context.Background(), noFlight))
}

func TestJournalListSince(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJournalRepo(db)
	payload, err := json.Marshal(surety.Event{ID: "ev-3", Seq: 3, Type: surety.EventAirlineFunded, Account: passenger})
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM surety_events WHERE seq > ?")).
		WithArgs(uint64(2), 50).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := repo.ListSince(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, surety.EventAirlineFunded, got[0].Type)
	assert.Equal(t, uint64(3), got[0].Seq)
}
