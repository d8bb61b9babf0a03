package services

import (
	"testing"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 14, hour, minute, 0, 0, time.UTC)
}

func settingsWindow(open, closing string) models.StoreSettings {
	s := models.DefaultStoreSettings()
	s.OpenTime, _ = models.ParseClockTime(open)
	s.CloseTime, _ = models.ParseClockTime(closing)
	return s
}

func TestEvaluateAvailability_DayWindow(t *testing.T) {
	s := settingsWindow("09:00", "21:00")

	tests := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"before opening", at(8, 59), false},
		{"at opening", at(9, 0), true},
		{"midday", at(13, 30), true},
		{"last minute", at(20, 59), true},
		{"at closing", at(21, 0), false},
		{"midnight", at(0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateAvailability(tt.now, s)
			assert.Equal(t, tt.open, got.IsOpen)
			if tt.open {
				assert.Empty(t, got.Message)
				assert.Nil(t, got.NextOpenTime)
			} else {
				assert.Equal(t, "Store is currently closed. Opens at 9:00 AM", got.Message)
				require.NotNil(t, got.NextOpenTime)
				assert.Equal(t, "9:00 AM", *got.NextOpenTime)
			}
		})
	}
}

func TestEvaluateAvailability_OvernightWindow(t *testing.T) {
	s := settingsWindow("22:00", "06:00")

	assert.True(t, EvaluateAvailability(at(23, 0), s).IsOpen, "open at 23:00")
	assert.True(t, EvaluateAvailability(at(2, 0), s).IsOpen, "open at 02:00")
	assert.True(t, EvaluateAvailability(at(22, 0), s).IsOpen, "open at opening minute")
	assert.False(t, EvaluateAvailability(at(6, 0), s).IsOpen, "closed at closing minute")

	closed := EvaluateAvailability(at(12, 0), s)
	assert.False(t, closed.IsOpen, "closed at 12:00")
	assert.Equal(t, "Store is currently closed. Opens at 10:00 PM", closed.Message)
}

func TestEvaluateAvailability_EmptyWindowIsClosed(t *testing.T) {
	s := settingsWindow("10:00", "10:00")
	for _, h := range []int{0, 9, 10, 11, 23} {
		assert.False(t, EvaluateAvailability(at(h, 0), s).IsOpen, "hour %d", h)
	}
}

func TestEvaluateAvailability_ForceStatus(t *testing.T) {
	closedSettings := settingsWindow("00:00", "23:59")
	closedSettings.ForceStatus = models.ForceClosed
	closedSettings.ClosedMessage = "Closed for the holiday."

	openSettings := settingsWindow("09:00", "09:30")
	openSettings.ForceStatus = models.ForceOpen

	for h := 0; h < 24; h++ {
		now := at(h, 15)

		closed := EvaluateAvailability(now, closedSettings)
		assert.False(t, closed.IsOpen)
		assert.Equal(t, "Closed for the holiday.", closed.Message)
		assert.Nil(t, closed.NextOpenTime)

		open := EvaluateAvailability(now, openSettings)
		assert.True(t, open.IsOpen)
		assert.Empty(t, open.Message)
	}
}

func TestEvaluateAvailability_IsDeterministic(t *testing.T) {
	s := settingsWindow("22:00", "06:00")
	now := at(12, 0)

	first := EvaluateAvailability(now, s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EvaluateAvailability(now, s))
	}
}

func TestEvaluateAvailability_ZeroPaddedMinutes(t *testing.T) {
	s := settingsWindow("07:05", "08:00")
	got := EvaluateAvailability(at(9, 0), s)
	require.NotNil(t, got.NextOpenTime)
	assert.Equal(t, "7:05 AM", *got.NextOpenTime)
}
