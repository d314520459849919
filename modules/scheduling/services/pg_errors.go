package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "SCHEDULING_NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return newServiceError(http.StatusConflict, "SCHEDULING_CONFLICT", "unique constraint violated", err)
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "SCHEDULING_REFERENCE_NOT_FOUND", "foreign key violation", err)
	case "23514": // check_violation
		return newServiceError(http.StatusBadRequest, "SCHEDULING_INVALID_BODY", "check constraint violated", err)
	default:
		return newServiceError(http.StatusInternalServerError, "SCHEDULING_INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}
