package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinancialData(t *testing.T) {
	t.Parallel()

	t.Run("valid record is coerced", func(t *testing.T) {
		t.Parallel()
		data, err := ParseFinancialData(Record{"id": "42", "scale": "3.14"})
		require.NoError(t, err)
		assert.Equal(t, "42", data.ID)
		assert.InDelta(t, 3.14, data.Scale, 1e-9)
	})

	t.Run("empty id and bad scale report both", func(t *testing.T) {
		t.Parallel()
		_, err := ParseFinancialData(Record{"id": "", "scale": "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Violations, 2)
		assert.Equal(t, "id", verr.Violations[0].Field)
		assert.Equal(t, "id is required", verr.Violations[0].Message)
		assert.Equal(t, "scale", verr.Violations[1].Field)
		assert.Equal(t, "scale must be a valid number", verr.Violations[1].Message)
		assert.Contains(t, err.Error(), "id: id is required")
	})

	t.Run("non-finite scale is rejected", func(t *testing.T) {
		t.Parallel()
		for _, scale := range []string{"NaN", "Inf", "-Inf", ""} {
			_, err := ParseFinancialData(Record{"id": "1", "scale": scale})
			require.Error(t, err, scale)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Violations, 1)
			assert.Equal(t, "scale", verr.Violations[0].Field)
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		t.Parallel()
		_, err := ParseFinancialData(Record{"other": "v"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Violations, 2)
	})
}
