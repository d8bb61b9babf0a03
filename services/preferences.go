package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Preference keys a client may read and write
const (
	PrefOrderAlertsMuted           = "orderAlertsMuted"
	PrefCustomerNotificationsMuted = "customerNotificationsMuted"
	PrefDismissedNotices           = "dismissed_notices"
	PrefSearchHistory              = "search_history"
	PrefNotificationPermission     = "notificationPermission"
)

const maxPreferenceLength = 4096

var allowedPreferences = map[string]bool{
	PrefOrderAlertsMuted:           true,
	PrefCustomerNotificationsMuted: true,
	PrefDismissedNotices:           true,
	PrefSearchHistory:              true,
	PrefNotificationPermission:     true,
}

// IsPreferenceKey reports whether key is a known preference
func IsPreferenceKey(key string) bool {
	return allowedPreferences[key]
}

// PreferenceStore holds per-user string preferences in one Redis hash per user.
// Values are opaque to the server except for the few flags it reads itself.
type PreferenceStore struct {
	client *redis.Client
}

// NewPreferenceStore creates a store on client
func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func preferencesKey(userID uint) string {
	return fmt.Sprintf("prefs:%d", userID)
}

// Get returns the stored value and whether it was set
func (p *PreferenceStore) Get(ctx context.Context, userID uint, key string) (string, bool, error) {
	if !IsPreferenceKey(key) {
		return "", false, &ValidationError{Field: "key", Message: "unknown preference"}
	}
	value, err := p.client.HGet(ctx, preferencesKey(userID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "read preference")
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (p *PreferenceStore) Set(ctx context.Context, userID uint, key, value string) error {
	if !IsPreferenceKey(key) {
		return &ValidationError{Field: "key", Message: "unknown preference"}
	}
	if len(value) > maxPreferenceLength {
		return &ValidationError{Field: "value", Message: "preference value is too long"}
	}
	if err := p.client.HSet(ctx, preferencesKey(userID), key, value).Err(); err != nil {
		return errors.Wrap(err, "write preference")
	}
	return nil
}

// All returns every preference the user has set
func (p *PreferenceStore) All(ctx context.Context, userID uint) (map[string]string, error) {
	values, err := p.client.HGetAll(ctx, preferencesKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read preferences")
	}
	return values, nil
}

// Flag reads a boolean preference. Unset or unparsable values are false.
func (p *PreferenceStore) Flag(ctx context.Context, userID uint, key string) (bool, error) {
	value, ok, err := p.Get(ctx, userID, key)
	if err != nil || !ok {
		return false, err
	}
	return ParseFlag(value), nil
}

// ParseFlag reads a stored boolean preference value. Unparsable values are false.
func ParseFlag(value string) bool {
	flag, err := strconv.ParseBool(value)
	return err == nil && flag
}

// PermissionValueGranted reports whether a stored notificationPermission value allows
// native notifications
func PermissionValueGranted(value string) bool {
	return value == "granted"
}

// PermissionGranted reports whether the client said native notifications are allowed
func (p *PreferenceStore) PermissionGranted(ctx context.Context, userID uint) (bool, error) {
	value, _, err := p.Get(ctx, userID, PrefNotificationPermission)
	return PermissionValueGranted(value), err
}

// DismissedNotices decodes the dismissed notice id list
func (p *PreferenceStore) DismissedNotices(ctx context.Context, userID uint) (map[uint]bool, error) {
	value, ok, err := p.Get(ctx, userID, PrefDismissedNotices)
	if err != nil || !ok {
		return map[uint]bool{}, err
	}
	var ids []uint
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		// a malformed list is treated as empty and rewritten on the next dismissal
		return map[uint]bool{}, nil
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// DismissNotice adds id to the dismissed notice list
func (p *PreferenceStore) DismissNotice(ctx context.Context, userID, noticeID uint) error {
	dismissed, err := p.DismissedNotices(ctx, userID)
	if err != nil {
		return err
	}
	if dismissed[noticeID] {
		return nil
	}
	dismissed[noticeID] = true

	ids := make([]uint, 0, len(dismissed))
	for id := range dismissed {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return errors.Wrap(err, "encode dismissed notices")
	}
	return p.Set(ctx, userID, PrefDismissedNotices, string(data))
}
