package repository

import (
	"errors"
	"fmt"
	"testing"

	"mungboard/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"not found", gorm.ErrRecordNotFound, models.CodeNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), models.CodeNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, models.CodeConstraint},
		{"foreign key", gorm.ErrForeignKeyViolated, models.CodeConstraint},
		{"pg unique", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}, models.CodeConstraint},
		{"pg fk", &pgconn.PgError{Code: "23503"}, models.CodeConstraint},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, models.CodeInternal},
		{"app error passes through", models.NewUnauthorizedError("nope"), models.CodeForbidden},
		{"other", errors.New("connection reset"), models.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "Post", 1)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.wantCode, models.ErrorCode(got))
		})
	}
}

func TestClassify_ConstraintHidesNothingFromLogs(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_nickname"}
	err := classify(pgErr, "User", "walker")
	assert.ErrorIs(t, err, pgErr)
	assert.Contains(t, err.Error(), "idx_users_nickname")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off`, escapeLike("50% off"))
	assert.Equal(t, `snake\_case`, escapeLike("snake_case"))
	assert.Equal(t, `back\\slash`, escapeLike(`back\slash`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
