package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"
	"chat-relay/internal/utils"
)

// Postgres holds the connection pool and implements auth.UserStore.
type Postgres struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg utils.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	if p == nil || p.Pool == nil {
		return
	}
	p.Pool.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.Pool.Ping(ctx)
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if p == nil || p.Pool == nil {
		return fmt.Errorf("postgres: pool not initialised")
	}

	statements := []string{
		strings.Join([]string{
			"CREATE TABLE IF NOT EXISTS users (",
			"    id TEXT PRIMARY KEY,",
			"    username TEXT NOT NULL,",
			"    email TEXT NOT NULL DEFAULT '',",
			"    password_hash TEXT NOT NULL,",
			"    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),",
			"    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()",
			")",
		}, "\n"),
		"CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (LOWER(username))",
		"CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email)) WHERE email <> ''",
	}

	for _, stmt := range statements {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}

	return nil
}

// CreateUser inserts a new account, translating uniqueness violations into
// the auth package's duplicate errors.
func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := p.Pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return auth.ErrEmailExists
			}
			return auth.ErrUserExists
		}
		return fmt.Errorf("postgres: create user: %w", err)
	}

	return nil
}

// TouchUpdatedAt refreshes an account's updated_at, recording the latest
// successful login.
func (p *Postgres) TouchUpdatedAt(ctx context.Context, userID string) error {
	const query = `UPDATE users SET updated_at = NOW() WHERE id = $1`

	if _, err := p.Pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("postgres: touch updated_at: %w", err)
	}

	return nil
}

// FindByIdentifier looks up an account by username or email,
// case-insensitively. A missing account returns (nil, nil).
func (p *Postgres) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1) OR (email <> '' AND LOWER(email) = LOWER($1))
		LIMIT 1`

	var user models.User
	err := p.Pool.QueryRow(ctx, query, strings.TrimSpace(identifier)).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find user: %w", err)
	}

	return &user, nil
}
