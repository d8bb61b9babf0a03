package services

import (
	"context"
	"strconv"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// CartService owns the persisted cart of each authenticated user
type CartService struct {
	db    *gorm.DB
	cache CartCache
	sfg   singleflight.Group
	log   logrus.FieldLogger
}

// NewCartService creates a cart service. A nil cache disables caching.
func NewCartService(db *gorm.DB, cache CartCache, log logrus.FieldLogger) *CartService {
	if cache == nil {
		cache = NoopCartCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CartService{db: db, cache: cache, log: log.WithField("component", "cart")}
}

// GetCart returns the user's cart, served from cache when possible
func (s *CartService) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	v, err, _ := s.sfg.Do(strconv.FormatUint(uint64(userID), 10), func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.WithError(err).Warn("cart cache get failed")
		}

		// read the version before loading so an invalidation during the load wins
		version, verr := s.cache.Version(ctx, userID)
		if verr != nil {
			s.log.WithError(verr).Warn("cart cache version failed")
		}

		cart, err = loadCart(s.db.WithContext(ctx), userID)
		if err != nil {
			return nil, err
		}

		if verr == nil {
			if err := s.cache.SetIfVersion(ctx, userID, version, cart); err != nil {
				s.log.WithError(err).Warn("cart cache set failed")
			}
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart), nil
}

// AddItem puts count units of a product in the cart, snapshotting its name and price.
// Adding a product already in the cart increases its count.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, count int) (*models.Cart, error) {
	if count <= 0 {
		return nil, &ValidationError{Field: "count", Message: "must be greater than zero"}
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, persistence("load product", err)
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}

	var existing models.CartItem
	err := db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	switch {
	case err == nil:
		if err := db.Model(&existing).Updates(map[string]any{
			"count":      gorm.Expr("count + ?", count),
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
			return nil, persistence("update cart item", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := models.CartItem{
			UserID:      userID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Price:       product.Price,
			Count:       count,
		}
		if err := db.Create(&item).Error; err != nil {
			return nil, persistence("create cart item", err)
		}
	default:
		return nil, persistence("load cart item", err)
	}

	return s.afterWrite(ctx, userID)
}

// UpdateCount sets the count of a cart line. A count of zero removes the line.
func (s *CartService) UpdateCount(ctx context.Context, userID, productID uint, count int) (*models.Cart, error) {
	if count < 0 {
		return nil, &ValidationError{Field: "count", Message: "cannot be negative"}
	}
	if count == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	res := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]any{"count": count, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, persistence("update cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCartItemNotFound
	}

	return s.afterWrite(ctx, userID)
}

// RemoveItem deletes a product from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint) (*models.Cart, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, persistence("delete cart item", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrCartItemNotFound
	}

	return s.afterWrite(ctx, userID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := clearCart(s.db.WithContext(ctx), userID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	return nil
}

// Invalidate drops the cached copy of the user's cart. Failures are logged only.
func (s *CartService) Invalidate(ctx context.Context, userID uint) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("cart cache invalidate failed")
	}
}

func (s *CartService) afterWrite(ctx context.Context, userID uint) (*models.Cart, error) {
	s.Invalidate(ctx, userID)
	return loadCart(s.db.WithContext(ctx), userID)
}

func loadCart(db *gorm.DB, userID uint) (*models.Cart, error) {
	var items []models.CartItem
	if err := db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, persistence("load cart", err)
	}
	return &models.Cart{UserID: userID, Items: items}, nil
}

func clearCart(db *gorm.DB, userID uint) error {
	if err := db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return persistence("clear cart", err)
	}
	return nil
}
