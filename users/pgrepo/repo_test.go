package pgrepo_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/jrsteele09/go-hr-portal/users/pgrepo"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *pgrepo.Repo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, pgrepo.New(mock)
}

func TestFetchRole(t *testing.T) {
	mock, repo := newMock(t)
	query := regexp.QuoteMeta(`SELECT role FROM user_roles WHERE user_id = $1`)

	mock.ExpectQuery(query).WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow("admin"))
	role, err := repo.FetchRole(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, role)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.FetchRole(context.Background(), "missing")
	require.ErrorIs(t, err, users.ErrNotFound)

	mock.ExpectQuery(query).WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow("superuser"))
	_, err = repo.FetchRole(context.Background(), testUserID)
	require.Error(t, err)
	require.NotErrorIs(t, err, users.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchProfile(t *testing.T) {
	mock, repo := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	query := regexp.QuoteMeta(`FROM profiles`)

	mock.ExpectQuery(query).WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "full_name", "email", "company_name", "country", "created_at", "updated_at"}).
			AddRow("p-1", testUserID, "Jane Doe", "a@b.com", "Acme", "Singapore", created, created))

	profile, err := repo.FetchProfile(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", profile.FullName)
	require.Equal(t, users.CountrySingapore, profile.Country)
	require.Equal(t, created, profile.CreatedAt)

	mock.ExpectQuery(query).WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.FetchProfile(context.Background(), "missing")
	require.ErrorIs(t, err, users.ErrNotFound)

	mock.ExpectQuery(query).WithArgs(testUserID).WillReturnError(errors.New("connection reset"))
	_, err = repo.FetchProfile(context.Background(), testUserID)
	require.ErrorContains(t, err, "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRoleAndProfile(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`)).
		WithArgs(testUserID, "employee").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, repo.InsertRole(context.Background(), testUserID, users.RoleEmployee))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO profiles`)).
		WithArgs(pgxmock.AnyArg(), testUserID, "Jane Doe", "a@b.com", "Acme", "Canada", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	profile := &users.Profile{UserID: testUserID, FullName: "Jane Doe", Email: "a@b.com", CompanyName: "Acme", Country: users.CountryCanada}
	require.NoError(t, repo.InsertProfile(context.Background(), profile))
	require.NotEmpty(t, profile.ID)
	require.False(t, profile.CreatedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWritesOnlyProvidedColumns(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET full_name = $1, country = $2, updated_at = $3 WHERE user_id = $4`)).
		WithArgs("John Roe", "India", pgxmock.AnyArg(), testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	country := users.CountryIndia
	err := repo.UpdateProfile(context.Background(), testUserID, users.ProfileUpdate{
		FullName: utils.Ptr("John Roe"),
		Country:  &country,
	})
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE profiles SET company_name = $1, updated_at = $2 WHERE user_id = $3`)).
		WithArgs("Globex", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err = repo.UpdateProfile(context.Background(), "missing", users.ProfileUpdate{CompanyName: utils.Ptr("Globex")})
	require.ErrorIs(t, err, users.ErrNotFound)

	// nothing to write, no statement issued
	require.NoError(t, repo.UpdateProfile(context.Background(), testUserID, users.ProfileUpdate{}))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, _ := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS user_roles").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, pgrepo.Migrate(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}
