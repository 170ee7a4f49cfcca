package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate indica violacion de una restriccion unique.
	ErrDuplicate = errors.New("duplicate record")
	// ErrSchemaMismatch indica que la tabla o columna esperada no existe.
	ErrSchemaMismatch = errors.New("database schema mismatch")
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// classify envuelve errores de postgres conocidos con un sentinel del paquete.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case pgUndefinedTable, pgUndefinedColumn:
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	default:
		return err
	}
}
