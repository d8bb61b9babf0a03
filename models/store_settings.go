package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Keys of the store_settings table
const (
	SettingOpenTime      = "open_time"
	SettingCloseTime     = "close_time"
	SettingForceStatus   = "force_status"
	SettingClosedMessage = "closed_message"
)

const (
	DefaultOpenTime      = "09:00"
	DefaultCloseTime     = "21:00"
	DefaultClosedMessage = "Store is currently closed."
)

// StoreSetting is one key-value row of the store configuration
type StoreSetting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the StoreSetting model
func (StoreSetting) TableName() string {
	return "store_settings"
}

// ForceStatus is the admin override of the time-window computation
type ForceStatus string

const (
	ForceAuto   ForceStatus = "auto"
	ForceOpen   ForceStatus = "open"
	ForceClosed ForceStatus = "closed"
)

// ParseForceStatus converts a raw value into a ForceStatus
func ParseForceStatus(raw string) (ForceStatus, error) {
	switch fs := ForceStatus(strings.TrimSpace(raw)); fs {
	case ForceAuto, ForceOpen, ForceClosed:
		return fs, nil
	default:
		return "", fmt.Errorf("force_status must be one of auto, open, closed; got %q", raw)
	}
}

// ClockTime is a wall-clock time of day with minute precision
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" in 24-hour form
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("time must be HH:MM, got %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid minute in %q", raw)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders the 24-hour "HH:MM" form stored in the database
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Format12h renders the time as "h:MM AM" / "h:MM PM"
func (c ClockTime) Format12h() string {
	period := "AM"
	if c.Hour >= 12 {
		period = "PM"
	}
	hour := c.Hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d %s", hour, c.Minute, period)
}

// StoreSettings is the typed view of the store_settings rows
type StoreSettings struct {
	OpenTime      ClockTime   `json:"-"`
	CloseTime     ClockTime   `json:"-"`
	ForceStatus   ForceStatus `json:"force_status"`
	ClosedMessage string      `json:"closed_message"`
}

// DefaultStoreSettings returns the configuration used for missing keys
func DefaultStoreSettings() StoreSettings {
	open, _ := ParseClockTime(DefaultOpenTime)
	closing, _ := ParseClockTime(DefaultCloseTime)
	return StoreSettings{
		OpenTime:      open,
		CloseTime:     closing,
		ForceStatus:   ForceAuto,
		ClosedMessage: DefaultClosedMessage,
	}
}

// StoreSettingsFromRows builds typed settings from raw rows. Missing or malformed
// values fall back to the defaults.
func StoreSettingsFromRows(rows []StoreSetting) StoreSettings {
	settings := DefaultStoreSettings()
	for _, row := range rows {
		switch row.Key {
		case SettingOpenTime:
			if t, err := ParseClockTime(row.Value); err == nil {
				settings.OpenTime = t
			}
		case SettingCloseTime:
			if t, err := ParseClockTime(row.Value); err == nil {
				settings.CloseTime = t
			}
		case SettingForceStatus:
			if fs, err := ParseForceStatus(row.Value); err == nil {
				settings.ForceStatus = fs
			}
		case SettingClosedMessage:
			if strings.TrimSpace(row.Value) != "" {
				settings.ClosedMessage = row.Value
			}
		}
	}
	return settings
}

// Rows flattens the settings back into key-value rows
func (s StoreSettings) Rows() []StoreSetting {
	return []StoreSetting{
		{Key: SettingOpenTime, Value: s.OpenTime.String()},
		{Key: SettingCloseTime, Value: s.CloseTime.String()},
		{Key: SettingForceStatus, Value: string(s.ForceStatus)},
		{Key: SettingClosedMessage, Value: s.ClosedMessage},
	}
}

// AsMap returns the flat key-value mapping exposed to admins
func (s StoreSettings) AsMap() map[string]string {
	out := make(map[string]string, 4)
	for _, row := range s.Rows() {
		out[row.Key] = row.Value
	}
	return out
}
