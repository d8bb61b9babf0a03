package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NoticeService manages store announcements and per-user dismissals
type NoticeService struct {
	db    *gorm.DB
	prefs *PreferenceStore
}

// NewNoticeService creates a notice service
func NewNoticeService(db *gorm.DB, prefs *PreferenceStore) *NoticeService {
	return &NoticeService{db: db, prefs: prefs}
}

// Create posts an active notice
func (s *NoticeService) Create(ctx context.Context, authorID uint, title, body string) (*models.Notice, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if body == "" {
		return nil, &ValidationError{Field: "body", Message: "body is required"}
	}

	notice := models.Notice{AuthorID: authorID, Title: title, Body: body, Active: true}
	if err := s.db.WithContext(ctx).Omit("Author").Create(&notice).Error; err != nil {
		return nil, persistence("create notice", err)
	}
	return &notice, nil
}

// SetActive shows or hides a notice for everyone
func (s *NoticeService) SetActive(ctx context.Context, id uint, active bool) (*models.Notice, error) {
	var notice models.Notice
	db := s.db.WithContext(ctx)
	if err := db.First(&notice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoticeNotFound
		}
		return nil, persistence("load notice", err)
	}
	if err := db.Model(&notice).Update("active", active).Error; err != nil {
		return nil, persistence("update notice", err)
	}
	notice.Active = active
	return &notice, nil
}

// ListForUser returns active notices the user has not dismissed, newest first
func (s *NoticeService) ListForUser(ctx context.Context, userID uint) ([]models.Notice, error) {
	var notices []models.Notice
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("created_at DESC, id DESC").Find(&notices).Error; err != nil {
		return nil, persistence("list notices", err)
	}

	dismissed, err := s.prefs.DismissedNotices(ctx, userID)
	if err != nil {
		return nil, err
	}

	visible := make([]models.Notice, 0, len(notices))
	for _, n := range notices {
		if !dismissed[n.ID] {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

// Dismiss hides a notice for one user
func (s *NoticeService) Dismiss(ctx context.Context, userID, noticeID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notice{}).Where("id = ?", noticeID).Count(&count).Error; err != nil {
		return persistence("load notice", err)
	}
	if count == 0 {
		return ErrNoticeNotFound
	}
	return s.prefs.DismissNotice(ctx, userID, noticeID)
}
