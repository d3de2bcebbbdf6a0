package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yunshang/merchant-admin-backend/internal/app/service"
	apperrors "github.com/yunshang/merchant-admin-backend/internal/errors"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login authenticates by phone and password
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请输入手机号和密码")
		return
	}

	log.Debug("Processing login", map[string]interface{}{
		"phone": req.Phone,
	})

	account, tokens, err := ctrl.authService.Login(req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"phone": req.Phone,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "手机号或密码错误")
			return
		}
		if errors.Is(err, service.ErrAccountFrozen) {
			log.Warn("Login failed: account frozen", map[string]interface{}{
				"phone": req.Phone,
			})
			apperrors.Forbidden(c, "账户已被冻结，请联系管理员")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"phone": req.Phone,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"account_id": account.ID,
		"phone":      account.Phone,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"data":    account,
		"tokens":  tokens,
		"message": "登录成功",
	})
}

// GetMe returns the authenticated account
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	accountID, exists := middleware.GetAccountID(c)
	if !exists {
		log.Warn("Unauthorized access to GetMe endpoint", nil)
		apperrors.Unauthorized(c, "请先登录")
		return
	}

	account, err := ctrl.authService.GetByID(accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			log.Warn("Account not found", map[string]interface{}{
				"account_id": accountID,
			})
			apperrors.NotFound(c, apperrors.AccountNotFound, "账户不存在")
			return
		}
		log.Error("Failed to get account information", err, map[string]interface{}{
			"account_id": accountID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"data": account,
	})
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid refresh token request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求数据格式错误")
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			log.Warn("Token refresh failed: invalid token", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "无效的刷新令牌，请重新登录")
			return
		}
		if errors.Is(err, service.ErrAccountFrozen) {
			log.Warn("Token refresh failed: account frozen", nil)
			apperrors.Forbidden(c, "账户已被冻结，请联系管理员")
			return
		}
		log.Error("Failed to refresh token", err, nil)
		apperrors.InternalError(c, "令牌刷新失败")
		return
	}

	log.Info("Token refreshed successfully")

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"tokens": tokens,
	})
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token := bearerToken(c)
	if token != "" {
		if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
			// Logout always succeeds from the caller's perspective
			log.Error("Failed to revoke token during logout", err, nil)
		}
	}

	if accountID, exists := middleware.GetAccountID(c); exists {
		log.Info("Account logged out", map[string]interface{}{
			"account_id": accountID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "已退出登录",
	})
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
