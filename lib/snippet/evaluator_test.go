package snippet

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluator(t *testing.T) {
	evaluator := NewInstance(time.Second)
	ctx := context.TODO()

	t.Run(`Transform check`, func(t *testing.T) {
		result, err := evaluator.Transform(ctx, `upper(trim(value))`, "  dupont ")
		require.Nil(t, err)
		require.Equal(t, "DUPONT", result)

		result, err = evaluator.Transform(ctx, `format_date(value, "2006-01-02")`, "15/03/2001")
		require.Nil(t, err)
		require.Equal(t, "2001-03-15", result)

		result, err = evaluator.Transform(ctx, `"+212" + digits(value)[1:]`, "06 12-34 56 78")
		require.Nil(t, err)
		require.Equal(t, "+212612345678", result)

		result, err = evaluator.Transform(ctx, `to_number(value) * 2`, "7,5")
		require.Nil(t, err)
		require.Equal(t, 15.0, result)

		result, err = evaluator.Transform(ctx, `title(value)`, "jean-PIERRE")
		require.Nil(t, err)
		require.Equal(t, "Jean-Pierre", result)
	})

	t.Run(`json number check`, func(t *testing.T) {
		result, err := evaluator.Transform(ctx, `value / 2`, json.Number("30"))
		require.Nil(t, err)
		require.Equal(t, 15.0, result)

		validation, err := evaluator.Validate(ctx, `value >= 10`, json.Number("12.5"))
		require.Nil(t, err)
		require.True(t, validation.IsValid)

		result, err = evaluator.Transform(ctx, `value.note + 1`, map[string]any{"note": json.Number("4")})
		require.Nil(t, err)
		require.EqualValues(t, 5, result)
	})

	t.Run(`empty code check`, func(t *testing.T) {
		result, err := evaluator.Transform(ctx, "  ", "Dupont")
		require.Nil(t, err)
		require.Equal(t, "Dupont", result)

		validation, err := evaluator.Validate(ctx, "", "Dupont")
		require.Nil(t, err)
		require.True(t, validation.IsValid)
	})

	t.Run(`Transform nil result check`, func(t *testing.T) {
		_, err := evaluator.Transform(ctx, `nil`, "Dupont")
		require.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run(`runtime error check`, func(t *testing.T) {
		_, err := evaluator.Transform(ctx, `parse_date(value)`, "pas une date")
		require.NotNil(t, err)
	})

	t.Run(`Validate check`, func(t *testing.T) {
		validation, err := evaluator.Validate(ctx, `is_email(value)`, "jean.dupont@example.com")
		require.Nil(t, err)
		require.True(t, validation.IsValid)

		validation, err = evaluator.Validate(ctx, `{is_valid: len(digits(value)) == 10, message: "10 chiffres attendus"}`, "06 12")
		require.Nil(t, err)
		require.False(t, validation.IsValid)
		require.Equal(t, "10 chiffres attendus", validation.Message)

		_, err = evaluator.Validate(ctx, `"oui"`, "x")
		require.ErrorIs(t, err, ErrValidationShape)
	})

	t.Run(`sandbox check`, func(t *testing.T) {
		err := evaluator.Check(`os.Exit(1)`)
		require.NotNil(t, err)
		var compileErr CompileError
		require.ErrorAs(t, err, &compileErr)

		require.NotNil(t, evaluator.Check(`repeat("a", 1000000)`))
		require.NotNil(t, evaluator.Check(`now()`))
		require.NotNil(t, evaluator.Check(`secret`))
		require.NotNil(t, evaluator.Check(`value +`))
		require.Nil(t, evaluator.Check(`lower(value) matches "^m"`))
	})

	t.Run(`timeout check`, func(t *testing.T) {
		slow := NewInstance(time.Nanosecond)
		_, err := slow.Transform(ctx, `len(filter(1..500000, # % 7 == 0))`, nil)
		require.ErrorIs(t, err, ErrTimeout)
	})
}
