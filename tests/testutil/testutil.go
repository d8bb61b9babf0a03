package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a private in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so the in-memory schema is never lost.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateUser inserts a user with the given role and optional phone
func CreateUser(t *testing.T, db *gorm.DB, auth0ID, role string, phone *string) models.User {
	t.Helper()

	user := models.User{
		Auth0ID: auth0ID,
		Name:    "User " + auth0ID,
		Email:   strings.ReplaceAll(auth0ID, "|", "_") + "@example.com",
		Phone:   phone,
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateProduct inserts an available product at price
func CreateProduct(t *testing.T, db *gorm.DB, name string, price int64) models.Product {
	t.Helper()

	product := models.Product{Name: name, Price: decimal.NewFromInt(price), Category: "meals", IsAvailable: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return product
}

// SetStoreSettings writes raw setting rows
func SetStoreSettings(t *testing.T, db *gorm.DB, values map[string]string) {
	t.Helper()

	for key, value := range values {
		row := models.StoreSetting{Key: key, Value: value}
		if err := db.Save(&row).Error; err != nil {
			t.Fatalf("Failed to save setting %s: %v", key, err)
		}
	}
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}
