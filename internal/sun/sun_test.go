package sun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSprayWindows(t *testing.T) {
	// Austin, TX in early summer.
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	w, err := SprayWindows(30.2672, -97.7431, date)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15", w.Date)
	assert.True(t, w.Sunrise.Before(w.Sunset))
	assert.InDelta(t, 14.0, w.Sunset.Sub(w.Sunrise).Hours(), 1.0)
	assert.Equal(t, w.Sunrise.Add(3*time.Hour), w.Morning.End)
	assert.Equal(t, w.Sunset.Add(-2*time.Hour), w.Evening.Start)

	// Austin sunrise is around 11:30 UTC in June.
	assert.InDelta(t, 11.5, float64(w.Sunrise.Hour())+float64(w.Sunrise.Minute())/60, 1.0)
}

func TestWindowsNext(t *testing.T) {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	w := Windows{
		Morning: Window{Start: base.Add(6 * time.Hour), End: base.Add(9 * time.Hour)},
		Evening: Window{Start: base.Add(18 * time.Hour), End: base.Add(20 * time.Hour)},
	}

	next, ok := w.Next(base.Add(7 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, w.Morning, next)
	assert.True(t, next.Contains(base.Add(7*time.Hour)))

	next, ok = w.Next(base.Add(12 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, w.Evening, next)
	assert.False(t, next.Contains(base.Add(12*time.Hour)))

	_, ok = w.Next(base.Add(21 * time.Hour))
	assert.False(t, ok)
}
