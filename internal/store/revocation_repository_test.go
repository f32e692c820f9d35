package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/store"
)

func TestRevocationRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := store.NewRevocationRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "workspace_id", "jti", "revoked_at", "reason"}).
		AddRow("rev-1", "ws-1", "jti-1", time.Now(), "agent offboarded")
	mock.ExpectQuery(`INSERT INTO revocations`).WillReturnRows(rows)

	out, err := repo.Create(context.Background(), &store.Revocation{
		ID: "rev-1", WorkspaceID: "ws-1", JTI: "jti-1", Reason: "agent offboarded",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if out.JTI != "jti-1" {
		t.Errorf("JTI = %q, want jti-1", out.JTI)
	}
}

func TestRevocationRepository_ExistsForJTI(t *testing.T) {
	db, mock := newMockDB(t)
	repo := store.NewRevocationRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForJTI(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("ExistsForJTI() error = %v", err)
	}
	if !exists {
		t.Error("expected exists = true")
	}
}
