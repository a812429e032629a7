package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	domerr "github.com/vmfleet/vmfleet/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// a record violating a uniqueness constraint.
type Duplication struct {
	Table    string
	Identity string
	Cause    error
}

var _ error = Duplication{}

func (d Duplication) Error() string {
	return fmt.Sprintf("%s is already in %s: %s", d.Identity, d.Table, d.Cause)
}

func (d Duplication) Unwrap() error {
	return domerr.ErrConflict
}

// translate pgx errors into domain ones, where possible.
//
// Unique violations become Duplication. Other errors pass through as-is.
func Translate(err error, table string, identity string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return Duplication{Table: table, Identity: identity, Cause: err}
	}
	return err
}
