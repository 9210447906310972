package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Akram409/leafora-web-server/pkg/utils"
)

const tokenIssuer = "leafora-gateway"

// Service is a self-contained Gateway backed by a PostgreSQL credential table
// and HS256 bearer tokens. It stands in for the hosted identity provider so
// the backend runs without one.
type Service struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
}

// NewService builds the gateway. The schema is created on first use via
// InitTables.
func NewService(db *sql.DB, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{db: db, secret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// InitTables creates the credential table if it does not exist.
func (s *Service) InitTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS gateway_accounts (
			uid UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255),
			disabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("init gateway tables: %w", err)
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, account NewAccount) (string, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		"SELECT uid FROM gateway_accounts WHERE email = $1", account.Email).Scan(&existing)
	if err == nil {
		return "", ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("check existing account: %w", err)
	}

	hash, err := utils.HashPassword(account.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.New().String()
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO gateway_accounts (uid, email, password_hash, display_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uid, account.Email, hash, account.DisplayName, now, now)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return uid, nil
}

func (s *Service) UpdateUser(ctx context.Context, uid string, update AccountUpdate) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE gateway_accounts
		SET email = COALESCE(NULLIF($2, ''), email),
		    display_name = COALESCE(NULLIF($3, ''), display_name),
		    updated_at = $4
		WHERE uid = $1
	`, uid, update.Email, update.DisplayName, time.Now())
	if err != nil {
		return fmt.Errorf("update account %s: %w", uid, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account %s: %w", uid, err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM gateway_accounts WHERE uid = $1", uid)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", uid, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account %s: %w", uid, err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *Service) IssueToken(ctx context.Context, email, password string) (string, error) {
	var (
		uid      string
		hash     string
		disabled bool
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT uid, password_hash, disabled FROM gateway_accounts WHERE email = $1", email).
		Scan(&uid, &hash, &disabled)
	if err == sql.ErrNoRows {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("look up account: %w", err)
	}
	if disabled {
		return "", ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, hash)
	if err != nil || !ok {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
