package repository

import (
	"errors"
	"strings"

	"mungboard/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// classify maps store errors onto AppError kinds. AppErrors raised inside a
// transaction pass through untouched.
func classify(err error, resource string, id any) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.NewConstraintError(resource+" already exists", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return models.NewConstraintError(resource+" references a missing record", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return models.NewConstraintError(resource+" violates "+constraintName(pgErr), err)
	}
	return models.NewInternalError(err)
}

func constraintName(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "an integrity constraint"
}

// escapeLike makes keyword match literally inside a LIKE pattern using '\' as
// the escape character.
func escapeLike(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(keyword)
}
