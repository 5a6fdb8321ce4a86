package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExec struct {
	stmts []string
	err   error
}

func (r *recordingExec) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	return pgconn.CommandTag{}, r.err
}

func TestEnsureSchema_CreatesPartialUniqueIndex(t *testing.T) {
	rec := &recordingExec{}
	if err := EnsureSchema(context.Background(), rec); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if len(rec.stmts) != len(schema) {
		t.Fatalf("expected %d statements, got %d", len(schema), len(rec.stmts))
	}
	found := false
	for _, stmt := range rec.stmts {
		if strings.Contains(stmt, "UNIQUE INDEX") && strings.Contains(stmt, "WHERE NOT is_deleted") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected partial unique index on email")
	}
}

func TestEnsureSchema_StopsOnError(t *testing.T) {
	rec := &recordingExec{err: errors.New("permission denied")}
	err := EnsureSchema(context.Background(), rec)
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(rec.stmts) != 1 {
		t.Fatalf("expected to stop after first failure, ran %d", len(rec.stmts))
	}
}
