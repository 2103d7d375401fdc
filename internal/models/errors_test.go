package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindHelpers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("modify post: %w", NewUnauthorizedError("wrong password"))

	assert.True(t, IsUnauthorized(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.True(t, IsValidation(NewValidationError("title is required")))
	assert.True(t, IsNotFound(NewNotFoundError("Post", 7)))
	assert.True(t, IsConstraint(NewConstraintError("duplicate", errors.New("23505"))))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "Post with ID 7 not found", NewNotFoundError("Post", 7).Error())
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("pq: relation posts is broken")))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, errors.New("dial tcp 10.0.0.1:5432"))
	})

	for _, path := range []string{"/internal", "/plain"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		var got ErrorResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, CodeInternal, got.Code)
		assert.Empty(t, got.Details)
		assert.NotContains(t, string(body), "10.0.0.1")
		assert.NotContains(t, string(body), "relation posts")
	}
}
