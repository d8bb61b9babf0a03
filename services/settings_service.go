package services

import (
	"context"
	"strings"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Clock returns the current time. Tests replace it to pin the store hours.
type Clock func() time.Time

// SettingsService reads and writes the store configuration rows
type SettingsService struct {
	db       *gorm.DB
	now      Clock
	location *time.Location
}

// NewSettingsService creates a settings service evaluating hours in loc
func NewSettingsService(db *gorm.DB, now Clock, loc *time.Location) *SettingsService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &SettingsService{db: db, now: now, location: loc}
}

// Get returns the current store settings
func (s *SettingsService) Get(ctx context.Context) (models.StoreSettings, error) {
	return loadStoreSettings(s.db.WithContext(ctx))
}

// Availability evaluates the store hours against the current time
func (s *SettingsService) Availability(ctx context.Context) (Availability, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return Availability{}, err
	}
	return EvaluateAvailability(s.Now(), settings), nil
}

// Now is the current time in the store location
func (s *SettingsService) Now() time.Time {
	return s.now().In(s.location)
}

// Update validates and writes the given keys. Keys not present keep their value;
// concurrent writers resolve last-write-wins per key.
func (s *SettingsService) Update(ctx context.Context, changes map[string]string) (models.StoreSettings, error) {
	rows := make([]models.StoreSetting, 0, len(changes))
	for key, value := range changes {
		normalized, err := validateSetting(key, value)
		if err != nil {
			return models.StoreSettings{}, err
		}
		rows = append(rows, models.StoreSetting{Key: key, Value: normalized, UpdatedAt: time.Now().UTC()})
	}

	if len(rows) > 0 {
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return models.StoreSettings{}, persistence("save store settings", err)
		}
	}

	return s.Get(ctx)
}

func validateSetting(key, value string) (string, error) {
	switch key {
	case models.SettingOpenTime, models.SettingCloseTime:
		t, err := models.ParseClockTime(value)
		if err != nil {
			return "", &ValidationError{Field: key, Message: err.Error()}
		}
		return t.String(), nil
	case models.SettingForceStatus:
		fs, err := models.ParseForceStatus(value)
		if err != nil {
			return "", &ValidationError{Field: key, Message: err.Error()}
		}
		return string(fs), nil
	case models.SettingClosedMessage:
		if strings.TrimSpace(value) == "" {
			return "", &ValidationError{Field: key, Message: "closed message cannot be blank"}
		}
		return strings.TrimSpace(value), nil
	default:
		return "", &ValidationError{Field: key, Message: "unknown setting"}
	}
}

func loadStoreSettings(db *gorm.DB) (models.StoreSettings, error) {
	var rows []models.StoreSetting
	if err := db.Find(&rows).Error; err != nil {
		return models.StoreSettings{}, persistence("load store settings", err)
	}
	return models.StoreSettingsFromRows(rows), nil
}
