package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    ClockTime
		wantErr bool
	}{
		{"09:00", ClockTime{9, 0}, false},
		{"23:59", ClockTime{23, 59}, false},
		{" 7:05 ", ClockTime{7, 5}, false},
		{"24:00", ClockTime{}, true},
		{"12:60", ClockTime{}, true},
		{"noon", ClockTime{}, true},
		{"", ClockTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseClockTime(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClockTimeFormat12h(t *testing.T) {
	assert.Equal(t, "12:00 AM", ClockTime{0, 0}.Format12h())
	assert.Equal(t, "9:05 AM", ClockTime{9, 5}.Format12h())
	assert.Equal(t, "12:30 PM", ClockTime{12, 30}.Format12h())
	assert.Equal(t, "10:00 PM", ClockTime{22, 0}.Format12h())
}

func TestStoreSettingsFromRows(t *testing.T) {
	settings := StoreSettingsFromRows([]StoreSetting{
		{Key: SettingOpenTime, Value: "22:00"},
		{Key: SettingCloseTime, Value: "bogus"},
		{Key: SettingForceStatus, Value: "closed"},
		{Key: SettingClosedMessage, Value: "Back soon."},
		{Key: "unrelated", Value: "x"},
	})

	assert.Equal(t, ClockTime{22, 0}, settings.OpenTime)
	assert.Equal(t, ClockTime{21, 0}, settings.CloseTime, "malformed value falls back to default")
	assert.Equal(t, ForceClosed, settings.ForceStatus)
	assert.Equal(t, "Back soon.", settings.ClosedMessage)

	assert.Equal(t, map[string]string{
		SettingOpenTime:      "22:00",
		SettingCloseTime:     "21:00",
		SettingForceStatus:   "closed",
		SettingClosedMessage: "Back soon.",
	}, settings.AsMap())
}

func TestParseForceStatus(t *testing.T) {
	fs, err := ParseForceStatus("open")
	require.NoError(t, err)
	assert.Equal(t, ForceOpen, fs)

	_, err = ParseForceStatus("maybe")
	assert.Error(t, err)
}
