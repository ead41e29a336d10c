package hh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicationDate(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

	t.Run("date within the current year", func(t *testing.T) {
		date, err := parsePublicationDate("12 августа", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC), date)
	})
	t.Run("future date rolls back a year", func(t *testing.T) {
		date, err := parsePublicationDate("30 декабря", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.December, 30, 0, 0, 0, 0, time.UTC), date)
	})
	t.Run("non-breaking space is tolerated", func(t *testing.T) {
		date, err := parsePublicationDate("3\u00a0мая", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.May, 3, 0, 0, 0, 0, time.UTC), date)
	})
	t.Run("unknown month fails", func(t *testing.T) {
		_, err := parsePublicationDate("12 brumaire", now)
		assert.Error(t, err)
	})
	t.Run("garbage fails", func(t *testing.T) {
		_, err := parsePublicationDate("вчера", now)
		assert.Error(t, err)
	})
}
