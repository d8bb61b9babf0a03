package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetByAuth0ID(_ context.Context, auth0ID string) (*models.User, error) {
	if auth0ID == "auth0|broken" {
		return nil, errors.New("connection reset")
	}
	if user, ok := s[auth0ID]; ok {
		return user, nil
	}
	return nil, services.ErrUserNotFound
}

func newUserRouter(auth0ID string, users UserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if auth0ID != "" {
			c.Set(ContextUserID, auth0ID)
		}
		c.Next()
	})
	router.Use(LoadCurrentUser(users))
	router.GET("/me", func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestLoadCurrentUser(t *testing.T) {
	users := stubUsers{
		"auth0|customer": {ID: 1, Role: models.RoleCustomer},
		"auth0|admin":    {ID: 2, Role: models.RoleAdmin},
	}

	tests := []struct {
		name           string
		auth0ID        string
		path           string
		expectedStatus int
		expectedError  string
	}{
		{name: "loads profile", auth0ID: "auth0|customer", path: "/me", expectedStatus: http.StatusOK},
		{name: "missing subject", path: "/me", expectedStatus: http.StatusUnauthorized, expectedError: "UNAUTHORIZED"},
		{name: "unknown subject", auth0ID: "auth0|ghost", path: "/me", expectedStatus: http.StatusNotFound, expectedError: "USER_NOT_FOUND"},
		{name: "lookup failure", auth0ID: "auth0|broken", path: "/me", expectedStatus: http.StatusInternalServerError, expectedError: "DATABASE_ERROR"},
		{name: "customer on admin route", auth0ID: "auth0|customer", path: "/admin", expectedStatus: http.StatusForbidden, expectedError: "FORBIDDEN"},
		{name: "admin on admin route", auth0ID: "auth0|admin", path: "/admin", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserRouter(tt.auth0ID, users)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.False(t, response["success"].(bool))
				assert.Equal(t, tt.expectedError, response["error"].(map[string]interface{})["code"])
			}
		})
	}
}
