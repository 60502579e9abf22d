package db_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"chat-relay/internal/auth"
	"chat-relay/internal/db"
	"chat-relay/internal/models"
	"chat-relay/internal/utils"
)

func TestPostgresUserStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	cfg := utils.PostgresConfig{
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	}

	store, err := db.NewPostgres(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	suffix := uuid.NewString()[:8]

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     "alice_" + suffix,
		Email:        "alice_" + suffix + "@example.com",
		PasswordHash: "hashed",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	dup := *user
	dup.ID = uuid.NewString()
	dup.Email = "different_" + suffix + "@example.com"
	if err := store.CreateUser(ctx, &dup); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	emailDup := *user
	emailDup.ID = uuid.NewString()
	emailDup.Username = "bob_" + suffix
	if err := store.CreateUser(ctx, &emailDup); !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	found, err := store.FindByIdentifier(ctx, "ALICE_"+suffix)
	if err != nil {
		t.Fatalf("find by username failed: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("expected user found case-insensitively, got %+v", found)
	}

	found, err = store.FindByIdentifier(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Fatalf("expected user found by email, got %+v", found)
	}

	if err := store.TouchUpdatedAt(ctx, user.ID); err != nil {
		t.Fatalf("touch updated_at failed: %v", err)
	}

	touched, err := store.FindByIdentifier(ctx, user.Username)
	if err != nil {
		t.Fatalf("find after touch failed: %v", err)
	}
	if !touched.UpdatedAt.After(found.UpdatedAt) {
		t.Fatalf("expected updated_at refreshed, got %v then %v", found.UpdatedAt, touched.UpdatedAt)
	}

	missing, err := store.FindByIdentifier(ctx, "nobody_"+suffix)
	if err != nil {
		t.Fatalf("find missing user returned error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown identifier, got %+v", missing)
	}
}
