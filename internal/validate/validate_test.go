package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value string
		ok    bool
	}{
		{value: "2000-02-29", ok: true},
		{value: "1999-02-29", ok: false},
		{value: "2021-02-30", ok: false},
		{value: "2021-13-01", ok: false},
		{value: "2021-1-01", ok: false},
		{value: "01/02/2021", ok: false},
		{value: "2021-01-01T00:00:00Z", ok: false},
		{value: " 2021-01-01", ok: false},
		{value: "", ok: false},
		{value: "1990-12-31", ok: true},
	}

	for _, tc := range testCases {
		_, err := Date(tc.value)
		if tc.ok {
			assert.NoError(t, err, tc.value)
			continue
		}
		var vErr *Error
		require.ErrorAs(t, err, &vErr, tc.value)
		assert.Equal(t, "birthDate", vErr.Field)
	}
}

func TestBirthDateRejectsFuture(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, BirthDate("2026-10-15", now))
	assert.Error(t, BirthDate("2026-10-16", now))
}

func TestPasswordLengthBoundary(t *testing.T) {
	t.Parallel()

	assert.Error(t, Password("abcde"))
	assert.NoError(t, Password("abcdef"))
	assert.NoError(t, Password("çãõéíó"))
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Email("a@b.com"))
	assert.Error(t, Email("ab.com"))
}

func TestRequired(t *testing.T) {
	t.Parallel()

	assert.True(t, Required("Rita"))
	assert.False(t, Required(""))
	assert.False(t, Required(" \t\n"))
}

func TestNonEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NonEmpty("bio", "hi"))
	err := NonEmpty("bio", "   ")
	require.Error(t, err)
	assert.Equal(t, "bio: bio is required", err.Error())
}
