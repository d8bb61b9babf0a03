package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrUserExists  = errors.New("user already exists")
	ErrEmailExists = errors.New("email already in use")
)

// ProfileUpdate changes only the fields that are set. An empty phone clears it.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// UserService provisions and edits user profiles
type UserService struct {
	db       *gorm.DB
	userInfo UserInfoFetcher
}

// NewUserService creates a user service
func NewUserService(db *gorm.DB, userInfo UserInfoFetcher) *UserService {
	return &UserService{db: db, userInfo: userInfo}
}

// Register creates the local profile for an Auth0 identity from its userinfo. role comes
// from the token's custom claims and defaults to customer.
func (s *UserService) Register(ctx context.Context, auth0ID, accessToken, role string) (*models.User, error) {
	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "fetch userinfo")
	}
	if info.Email == "" {
		return nil, &ValidationError{Field: "email", Message: "Email not provided by Auth0"}
	}
	if info.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "Name not provided by Auth0"}
	}
	if role != models.RoleAdmin {
		role = models.RoleCustomer
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    info.Name,
		Email:   info.Email,
		Role:    role,
	}
	if phone := strings.TrimSpace(info.PhoneNumber); phone != "" {
		user.Phone = &phone
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, persistence("create user", err)
	}
	return &user, nil
}

// GetByAuth0ID loads the profile for a token subject
func (s *UserService) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence("load user", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial profile change
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence("load user", err)
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "name cannot be blank"}
		}
		updates["name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &ValidationError{Field: "email", Message: "invalid email address"}
		}
		updates["email"] = email
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = phone
		}
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, persistence("update user", err)
	}
	if err := db.First(&user, userID).Error; err != nil {
		return nil, persistence("reload user", err)
	}
	return &user, nil
}

// AdminIDs lists the ids of every admin
func (s *UserService) AdminIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Pluck("id", &ids).Error; err != nil {
		return nil, persistence("list admins", err)
	}
	return ids, nil
}

// isUniqueViolation matches duplicate key errors from both postgres and sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
