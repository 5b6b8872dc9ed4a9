package procnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("strips CNJ mask", func(t *testing.T) {
		assert.Equal(t, "04251444420168190001", Normalize("0425144-44.2016.8.19.0001"))
	})

	t.Run("repairs spreadsheet scientific notation", func(t *testing.T) {
		assert.Equal(t, "1017799120000000000", Normalize("1.01779912E+18"))
		assert.Equal(t, "1017799120000000000", Normalize("1.01779912e+18"))
	})

	t.Run("idempotent on canonical input", func(t *testing.T) {
		canonical := Normalize("0425144-44.2016.8.19.0001")
		assert.Equal(t, canonical, Normalize(canonical))
	})

	t.Run("stable across repeated calls", func(t *testing.T) {
		assert.Equal(t, Normalize(" 0425144-44.2016.8.19.0001 "), Normalize(" 0425144-44.2016.8.19.0001 "))
	})

	t.Run("empty and whitespace-only input", func(t *testing.T) {
		assert.Equal(t, "", Normalize(""))
		assert.Equal(t, "", Normalize("   "))
	})

	t.Run("non-digit garbage strips to empty", func(t *testing.T) {
		assert.Equal(t, "", Normalize("n/a"))
	})
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("04251444420168190001"))
	assert.False(t, IsValid("12345"))
	assert.False(t, IsValid(""))
}
