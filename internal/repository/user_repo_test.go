package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papaya-users/internal/domain"
)

type stubDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	row      pgx.Row
	lastSQL  string
	lastArgs []any
}

func (s *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.lastSQL = sql
	s.lastArgs = args
	return s.execTag, s.execErr
}

func (s *stubDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.lastSQL = sql
	s.lastArgs = args
	return nil, errors.New("query not stubbed")
}

func (s *stubDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	s.lastSQL = sql
	s.lastArgs = args
	return s.row
}

type stubRow struct {
	err    error
	values []any
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case **string:
			*d = v.(*string)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		case *int:
			*d = v.(int)
		}
	}
	return nil
}

func TestPgUserRepository_InsertMapsUniqueViolation(t *testing.T) {
	db := &stubDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_active_key"}}
	repo := NewPgUserRepository(db)

	err := repo.Insert(context.Background(), newUser("u1", "a@x.com", time.Now().UTC()))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Contains(t, db.lastSQL, "INSERT INTO users")
	assert.Len(t, db.lastArgs, 9)
}

func TestPgUserRepository_InsertWrapsOtherErrors(t *testing.T) {
	db := &stubDB{execErr: errors.New("connection reset")}
	repo := NewPgUserRepository(db)

	err := repo.Insert(context.Background(), newUser("u1", "a@x.com", time.Now().UTC()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPgUserRepository_UpdateWithoutRowsIsNotFound(t *testing.T) {
	db := &stubDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewPgUserRepository(db)

	err := repo.Update(context.Background(), newUser("u1", "a@x.com", time.Now().UTC()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, db.lastSQL, "NOT is_deleted")
}

func TestPgUserRepository_UpdateOneRow(t *testing.T) {
	db := &stubDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewPgUserRepository(db)

	require.NoError(t, repo.Update(context.Background(), newUser("u1", "a@x.com", time.Now().UTC())))
}

func TestPgUserRepository_FindByIDNoRows(t *testing.T) {
	db := &stubDB{row: stubRow{err: pgx.ErrNoRows}}
	repo := NewPgUserRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []any{"missing"}, db.lastArgs)
}

func TestPgUserRepository_FindByEmailScansRow(t *testing.T) {
	now := time.Now().UTC()
	avatar := "http://example.com/a.png"
	db := &stubDB{row: stubRow{values: []any{"u1", "a@x.com", "hash", "Ana", "Diaz", &avatar, false, now, now}}}
	repo := NewPgUserRepository(db)

	u, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	require.NotNil(t, u.Avatar)
	assert.Equal(t, avatar, *u.Avatar)
	assert.True(t, strings.Contains(db.lastSQL, "email = $1 AND NOT is_deleted"))
}

func TestPgUserRepository_CountNotDeleted(t *testing.T) {
	db := &stubDB{row: stubRow{values: []any{7}}}
	repo := NewPgUserRepository(db)

	total, err := repo.CountNotDeleted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}
