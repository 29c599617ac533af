package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codeready-toolchain/mymoment-monitor/pkg/services"
)

// pgUniqueViolation is Postgres' SQLSTATE for a unique_violation, used
// here to translate duplicate-key failures into ErrAlreadyExists.
const pgUniqueViolation = "23505"

// translate maps a raw database/sql or pgx error into the services error
// taxonomy so callers above pkg/store never branch on driver-specific codes.
func translate(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return services.NewNotFoundError(resource, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return services.ErrAlreadyExists
	}

	return err
}
