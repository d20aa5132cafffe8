package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds returned by the services. Match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// RequestError is a refusal caused by the caller's data rather than by the
// database. Message is safe to show to the operator.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Kind }

func refuse(kind error, format string, args ...any) error {
	return &RequestError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
