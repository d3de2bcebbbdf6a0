package controller

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/internal/app/service"
	"github.com/yunshang/merchant-admin-backend/internal/db"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
)

const testSecret = "test-jwt-secret"

func setupAuthControllerTest(t *testing.T) (*gin.Engine, service.AccountService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	accountRepo := repository.NewAccountRepository(testDB)
	accountService := service.NewAccountService(accountRepo)
	authService := service.NewAuthService(
		accountRepo,
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	authController := NewAuthController(authService)
	authMiddleware := middleware.NewAuthMiddleware(testSecret)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	auth := router.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.GET("/me", authMiddleware.Authenticate(), authController.GetMe)
		auth.POST("/logout", authMiddleware.Authenticate(), authController.Logout)
	}

	return router, accountService
}

func TestAuthController_Login(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	mustCreateAccount(t, accountService, "13800138000")

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone":    "13800138000",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["ok"])

	tokens := response["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "13800138000", data["phone"])
}

func TestAuthController_Login_InvalidCredentials(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	mustCreateAccount(t, accountService, "13800138000")

	tests := []struct {
		name     string
		phone    string
		password string
	}{
		{"Wrong password", "13800138000", "wrongpassword"},
		{"Unknown phone", "13900000000", "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
				"phone":    tt.phone,
				"password": tt.password,
			})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "AUTH_INVALID_CREDENTIALS")
		})
	}
}

func TestAuthController_Login_FrozenAccount(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	created := mustCreateAccount(t, accountService, "13800138000")
	require.NoError(t, accountService.Freeze(created.ID))

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone":    "13800138000",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthController_Login_MissingFields(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone": "13800138000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthController_GetMe(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	created := mustCreateAccount(t, accountService, "13800138000")

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone":    "13800138000",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var loginResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResponse))
	accessToken := loginResponse["tokens"].(map[string]interface{})["access_token"].(string)

	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w2 := performRequest(router, req)

	assert.Equal(t, http.StatusOK, w2.Code)

	var meResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &meResponse))
	data := meResponse["data"].(map[string]interface{})
	assert.Equal(t, float64(created.ID), data["id"])
	assert.Equal(t, "13800138000", data["phone"])

	// No token, no identity
	req, _ = http.NewRequest(http.MethodGet, "/auth/me", nil)
	w3 := performRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, w3.Code)
}

func TestAuthController_RefreshToken(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	mustCreateAccount(t, accountService, "13800138000")

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone":    "13800138000",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var loginResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResponse))
	refreshToken := loginResponse["tokens"].(map[string]interface{})["refresh_token"].(string)

	w = postJSON(router, http.MethodPost, "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var refreshResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refreshResponse))
	tokens := refreshResponse["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])

	w = postJSON(router, http.MethodPost, "/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
}

func TestAuthController_Logout(t *testing.T) {
	router, accountService := setupAuthControllerTest(t)

	mustCreateAccount(t, accountService, "13800138000")

	w := postJSON(router, http.MethodPost, "/auth/login", map[string]interface{}{
		"phone":    "13800138000",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var loginResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResponse))
	accessToken := loginResponse["tokens"].(map[string]interface{})["access_token"].(string)

	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w2 := performRequest(router, req)

	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Contains(t, w2.Body.String(), "已退出登录")
}
