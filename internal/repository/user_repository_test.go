package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tanroads/rrs-api/internal/models"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "region_id", "district_id", "active", "last_login", "created_at", "updated_at"}).
		AddRow("user-1", "ras@roads.go.tz", "hash", "Asha Juma", "REGIONAL_ADMINISTRATIVE_SECRETARY", int64(3), nil, true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email")).
		WithArgs("ras@roads.go.tz").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "ras@roads.go.tz")
	require.NoError(t, err)
	require.Equal(t, models.RoleRAS, user.Role)
	require.NotNil(t, user.RegionID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email")).
		WithArgs("missing@roads.go.tz").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "missing@roads.go.tz")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "region_id", "district_id", "active", "last_login", "created_at", "updated_at"}).
		AddRow("user-2", "member@nrcc.go.tz", "hash", "Juma Hassan", "NRCC_MEMBER", nil, nil, true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email")).
		WithArgs("NRCC_MEMBER").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("NRCC_MEMBER").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleNRCCMember
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		UserID:    "user-1",
		Token:     "opaque",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
