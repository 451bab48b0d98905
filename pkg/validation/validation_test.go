package validation_test

import (
	"context"
	"testing"

	"github.com/Jubii100/Growbal-sub000/pkg/models"
	"github.com/Jubii100/Growbal-sub000/pkg/validation"
	"github.com/stretchr/testify/assert"
)

func TestRuleValidator(t *testing.T) {
	v := validation.NewRuleValidator()
	ctx := context.Background()

	validate := func(raw, kind string, choices ...string) validation.Result {
		res, err := v.Validate(ctx, raw, models.ChecklistItem{Key: "k", ValueKind: kind, Choices: choices})
		assert.NoError(t, err)
		return res
	}

	t.Run("TextTrimsWhitespace", func(t *testing.T) {
		res := validate("  Acme Trading LLC  ", "text")
		assert.True(t, res.Valid)
		assert.Equal(t, "Acme Trading LLC", res.Normalized)
	})

	t.Run("EmptyAnswerInvalid", func(t *testing.T) {
		res := validate("   ", "text")
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Errors)
	})

	t.Run("Email", func(t *testing.T) {
		res := validate("Owner@Example.COM", "email")
		assert.True(t, res.Valid)
		assert.Equal(t, "owner@example.com", res.Normalized)

		res = validate("not-an-email", "email")
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Errors)
	})

	t.Run("Number", func(t *testing.T) {
		res := validate("2", "number")
		assert.True(t, res.Valid)
		assert.Equal(t, "2", res.Normalized)

		res = validate("1,5", "number")
		assert.True(t, res.Valid)
		assert.Equal(t, "1.5", res.Normalized)

		res = validate("two", "number")
		assert.False(t, res.Valid)
	})

	t.Run("Date", func(t *testing.T) {
		res := validate("2026-01-15", "date")
		assert.True(t, res.Valid)

		res = validate("15/01/2026", "date")
		assert.False(t, res.Valid)
	})

	t.Run("ChoiceIsCaseInsensitive", func(t *testing.T) {
		res := validate("llc", "choice", "LLC", "FZE")
		assert.True(t, res.Valid)
		assert.Equal(t, "LLC", res.Normalized)

		res = validate("partnership", "choice", "LLC", "FZE")
		assert.False(t, res.Valid)
	})

	t.Run("ConfusionSignal", func(t *testing.T) {
		res := validate("Sorry, what do you mean by jurisdiction?", "text")
		assert.False(t, res.Valid)
		assert.True(t, res.Confused)
	})

	t.Run("UnknownKindFallsBackToText", func(t *testing.T) {
		res := validate("anything", "uuid")
		assert.True(t, res.Valid)
	})
}
