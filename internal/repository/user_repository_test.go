package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/sekoucamara/bus-reservation/internal/model"
)

func TestCreateSetsInsertID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(uint64(2), "Mamadou Bah", "mbah@example.com", "$2a$10$hash", model.RoleAgent).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{
		AgencyID:     2,
		FullName:     "Mamadou Bah",
		Email:        "mbah@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleAgent,
	}
	if err := NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != 7 {
		t.Fatalf("id = %d, want 7", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateMapsDuplicateEmailToConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	u := &model.User{AgencyID: 2, Email: "mbah@example.com", Role: model.RoleAgent}
	if err := NewUserRepo(db).Create(context.Background(), u); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetByEmailIgnoresInactiveAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The active=1 filter is part of the query, so a disabled account
	// scans as no rows.
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("gone@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "agency_id", "full_name", "email", "password_hash", "role", "active", "created_at",
		}))

	if _, err := NewUserRepo(db).GetByEmail(context.Background(), "gone@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !IsDuplicateKey(&mysql.MySQLError{Number: 1062}) {
		t.Fatal("1062 should be a duplicate-key error")
	}
	if IsDuplicateKey(&mysql.MySQLError{Number: 1213}) {
		t.Fatal("1213 (deadlock) is not a duplicate-key error")
	}
	if IsDuplicateKey(errors.New("plain")) {
		t.Fatal("plain errors are not duplicate-key errors")
	}
}
