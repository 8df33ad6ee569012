package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	require.NoError(t, ValidateCredentials(Credentials{Email: "a@b.co", Password: "x"}))

	err := ValidateCredentials(Credentials{Email: "a@b.co"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Password is required", ve.Issue("password"))
	assert.Empty(t, ve.Issue("email"))

	err = ValidateCredentials(Credentials{Email: "   ", Password: "secret"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Email is required", ve.Issue("email"))
}

func TestValidateRegistration(t *testing.T) {
	require.NoError(t, ValidateRegistration(Registration{Email: "user@example.com", Password: "secret1"}))

	err := ValidateRegistration(Registration{Email: "not-an-email", Password: "123"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please enter a valid email address", ve.Issue("email"))
	assert.Equal(t, "Password must be at least 6 characters", ve.Issue("password"))
}

func TestValidateDraft(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tomorrow := TimestampOf(now.Add(24 * time.Hour))

	t.Run("valid", func(t *testing.T) {
		err := ValidateDraft(TaskDraft{Title: "Plan", Deadline: tomorrow, Priority: TaskPriorityHigh}, now)
		assert.NoError(t, err)
	})

	t.Run("missing everything", func(t *testing.T) {
		err := ValidateDraft(TaskDraft{}, now)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ErrTitleRequired.Error(), ve.Issue("title"))
		assert.Equal(t, "Deadline is required", ve.Issue("deadline"))
		assert.Equal(t, "Priority is required", ve.Issue("priority"))
		assert.Len(t, ve.Fields, 3)
	})

	t.Run("deadline in the past", func(t *testing.T) {
		err := ValidateDraft(TaskDraft{Title: "Plan", Deadline: TimestampOf(now.Add(-time.Minute)), Priority: TaskPriorityLow}, now)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Deadline cannot be in the past", ve.Issue("deadline"))
	})

	t.Run("unknown priority", func(t *testing.T) {
		err := ValidateDraft(TaskDraft{Title: "Plan", Deadline: tomorrow, Priority: "urgent"}, now)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Priority must be one of: low, medium, high", ve.Issue("priority"))
	})
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil, "x"))
	assert.Equal(t, "Invalid credentials", UserMessage(&ServerError{StatusCode: 401, Detail: "Invalid credentials"}, "Login failed"))
	assert.Equal(t, "Login failed", UserMessage(&ServerError{StatusCode: 500}, "Login failed"))
	assert.Equal(t, MessageServer, UserMessage(&ServerError{StatusCode: 500}, ""))
	assert.Equal(t, MessageNetwork, UserMessage(errors.Join(ErrNetwork, errors.New("dial tcp")), "Login failed"))
	assert.Equal(t, "Password is required", UserMessage(NewValidationError("password", "Password is required"), ""))
	assert.Equal(t, "boom", UserMessage(errors.New("boom"), ""))
}

func TestServerError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, &ServerError{StatusCode: 401}, ErrUnauthorized)
	assert.ErrorIs(t, &ServerError{StatusCode: 404}, ErrNotFound)
	assert.NotErrorIs(t, &ServerError{StatusCode: 400}, ErrUnauthorized)
}
