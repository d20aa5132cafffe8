package core

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// brokenRows yields n rows and then reports err, as pgx does when the
// connection drops partway through a result set.
type brokenRows struct {
	n      int
	err    error
	closed bool
}

func (r *brokenRows) Close()                                       { r.closed = true }
func (r *brokenRows) Err() error                                   { return r.err }
func (r *brokenRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *brokenRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *brokenRows) Scan(...any) error                            { return nil }
func (r *brokenRows) Values() ([]any, error)                       { return nil, nil }
func (r *brokenRows) RawValues() [][]byte                          { return nil }
func (r *brokenRows) Conn() *pgx.Conn                              { return nil }

func (r *brokenRows) Next() bool {
	if r.n == 0 {
		return false
	}
	r.n--
	return true
}

func TestCollectSaleRows_ReportsTruncatedResults(t *testing.T) {
	errConn := errors.New("unexpected EOF")

	collectors := map[string]func(pgx.Rows) (int, error){
		"lines": func(rows pgx.Rows) (int, error) {
			got, err := collectSaleLines(rows)
			return len(got), err
		},
		"payments": func(rows pgx.Rows) (int, error) {
			got, err := collectSalePayments(rows)
			return len(got), err
		},
		"credit payments": func(rows pgx.Rows) (int, error) {
			got, err := collectCreditPayments(rows)
			return len(got), err
		},
	}
	for name, collect := range collectors {
		t.Run(name, func(t *testing.T) {
			rows := &brokenRows{n: 2, err: errConn}
			if _, err := collect(rows); !errors.Is(err, errConn) {
				t.Errorf("expected the read error, got %v", err)
			}
			if !rows.closed {
				t.Errorf("rows must be closed")
			}

			rows = &brokenRows{n: 2}
			n, err := collect(rows)
			if err != nil || n != 2 {
				t.Errorf("clean read = %d rows, %v; want 2, nil", n, err)
			}
		})
	}
}
