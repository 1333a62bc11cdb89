package travel

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrTravelNotFound = fmt.Errorf("travel not found")

// normalizeRemoteError extracts the most useful human-readable part of a
// remote mutation failure: the server message, then detail, then hint, else
// the stringified error.
func normalizeRemoteError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Message != "" {
			return pgErr.Message
		}
		if pgErr.Detail != "" {
			return pgErr.Detail
		}
		if pgErr.Hint != "" {
			return pgErr.Hint
		}
	}
	return err.Error()
}
