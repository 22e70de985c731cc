package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocation(t *testing.T) {
	t.Run("valid timezone", func(t *testing.T) {
		loc, fallback := ResolveLocation("Asia/Jerusalem")
		assert.False(t, fallback)
		assert.Equal(t, "Asia/Jerusalem", loc.String())
	})

	t.Run("empty falls back to UTC", func(t *testing.T) {
		loc, fallback := ResolveLocation("")
		assert.True(t, fallback)
		assert.Equal(t, time.UTC, loc)
	})

	t.Run("garbage falls back to UTC", func(t *testing.T) {
		loc, fallback := ResolveLocation("Not/AZone")
		assert.True(t, fallback)
		assert.Equal(t, time.UTC, loc)
	})
}

func TestCombineDateTime(t *testing.T) {
	loc, _ := ResolveLocation("Asia/Jerusalem")

	t.Run("combines in location", func(t *testing.T) {
		got, err := CombineDateTime("2025-06-14", "14:30", loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 14, 14, 30, 0, 0, loc), got)
	})

	t.Run("missing date", func(t *testing.T) {
		_, err := CombineDateTime("", "14:30", loc)
		assert.Error(t, err)
	})

	t.Run("malformed time", func(t *testing.T) {
		_, err := CombineDateTime("2025-06-14", "2pm", loc)
		assert.Error(t, err)
	})
}

func TestHourBucket(t *testing.T) {
	loc, _ := ResolveLocation("Asia/Jerusalem")
	in := time.Date(2025, 6, 14, 13, 47, 12, 999, loc)

	got := HourBucket(in)

	assert.Equal(t, time.Date(2025, 6, 14, 13, 0, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}
