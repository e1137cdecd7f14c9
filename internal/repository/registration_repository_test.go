package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
)

func newRegistrationMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO pending_requests").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := "Class 7"
	req := &models.PendingRequest{Name: "Rahim", Email: "rahim@example.com", Role: models.RoleStudent, Class: &class}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "class", "subject", "status", "created_at", "approved_at", "approved_by"}).
		AddRow("r1", "Rahim", "rahim@example.com", "student", "Class 7", nil, "pending", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, role, class, subject, status, created_at, approved_at, approved_by FROM pending_requests WHERE id = $1 LIMIT 1")).
		WithArgs("r1").
		WillReturnRows(rows)

	req, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery("SELECT id, name, email").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRegistrationRepositoryListExcludesAdmin(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "class", "subject", "status", "created_at", "approved_at", "approved_by"}).
		AddRow("r1", "Rahim", "rahim@example.com", "student", "Class 7", nil, "pending", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, role, class, subject, status, created_at, approved_at, approved_by FROM pending_requests WHERE role IN ('student', 'teacher') AND status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.RequestStatusPending).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pending_requests WHERE role IN ('student', 'teacher') AND status = $1")).
		WithArgs(models.RequestStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.RequestStatusPending
	requests, total, err := repo.List(context.Background(), models.PendingRequestFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryMarkApprovedGuard(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_requests SET status = 'approved', approved_at = $2, approved_by = $3 WHERE id = $1 AND status = 'pending'")).
		WithArgs("r1", ts, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	transitioned, err := repo.MarkApproved(context.Background(), "r1", "admin-1", ts)
	require.NoError(t, err)
	assert.True(t, transitioned)

	// Same update against an already decided row affects nothing.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_requests SET status = 'approved', approved_at = $2, approved_by = $3 WHERE id = $1 AND status = 'pending'")).
		WithArgs("r1", ts, "admin-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	transitioned, err = repo.MarkApproved(context.Background(), "r1", "admin-1", ts)
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryMarkRejectedGuard(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pending_requests SET status = 'rejected' WHERE id = $1 AND status = 'pending'")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	transitioned, err := repo.MarkRejected(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, transitioned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRegistrationMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pending_requests WHERE status = 'pending' AND role IN ('student', 'teacher')")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}
