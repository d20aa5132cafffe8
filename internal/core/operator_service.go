package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced by HashPassword.
const MinPasswordLength = 8

type operatorService struct {
	pool *pgxpool.Pool
}

// NewOperatorService constructs an OperatorService backed by PostgreSQL.
func NewOperatorService(pool *pgxpool.Pool) OperatorService {
	return &operatorService{pool: pool}
}

// HashPassword returns the bcrypt hash stored in operators.password_hash.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", refuse(ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *operatorService) Authenticate(ctx context.Context, username, password string) (*Operator, error) {
	o := &Operator{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM operators
		WHERE username = $1 AND is_active = true
		LIMIT 1`,
		strings.TrimSpace(username),
	).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.Role, &o.IsActive, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up operator %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return o, nil
}

func (s *operatorService) GetByID(ctx context.Context, id int) (*Operator, error) {
	o := &Operator{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM operators
		WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.Role, &o.IsActive, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, refuse(ErrNotFound, "operator %d not found", id)
		}
		return nil, fmt.Errorf("failed to get operator %d: %w", id, err)
	}
	return o, nil
}

func (s *operatorService) CreateOperator(ctx context.Context, username, password, role string) (*Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, refuse(ErrInvalidInput, "username is required")
	}
	if role != RoleAdmin && role != RoleCashier {
		return nil, refuse(ErrInvalidInput, "role must be %q or %q", RoleAdmin, RoleCashier)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	o := &Operator{}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO operators (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, role, is_active, created_at`,
		username, hash, role,
	).Scan(&o.ID, &o.Username, &o.PasswordHash, &o.Role, &o.IsActive, &o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, refuse(ErrConflict, "operator %q already exists", username)
		}
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}
	return o, nil
}
