package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yunshang/merchant-admin-backend/internal/app/model"
	"github.com/yunshang/merchant-admin-backend/internal/errors"
	"github.com/yunshang/merchant-admin-backend/pkg/redis"
	"github.com/yunshang/merchant-admin-backend/pkg/util"
)

// Context keys for the authenticated account
const (
	AccountIDKey    = "account_id"
	AccountPhoneKey = "account_phone"
	AccountRoleKey  = "account_role"
)

type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the Bearer access token and loads the account
// identity into the request context. Revoked tokens are rejected.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "认证格式不正确")
			c.Abort()
			return
		}
		token := parts[1]

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			if err == util.ErrExpiredToken {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "登录已过期，请重新登录")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "无效的认证令牌")
			}
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			log.Warn("Refresh token used on protected endpoint", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "无效的认证令牌")
			c.Abort()
			return
		}

		// Logged-out tokens stay blacklisted until their natural expiry
		revoked, err := redis.IsTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			log.Error("Failed to check token blacklist", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.InternalError(c, "")
			c.Abort()
			return
		}
		if revoked {
			log.Warn("Revoked token rejected", map[string]interface{}{
				"account_id": claims.AccountID,
				"path":       c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "登录已失效，请重新登录")
			c.Abort()
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(AccountPhoneKey, claims.Phone)
		c.Set(AccountRoleKey, model.AccountRole(claims.Role))

		log.Debug("Account authenticated successfully", map[string]interface{}{
			"account_id": claims.AccountID,
			"phone":      claims.Phone,
			"role":       claims.Role,
		})

		c.Next()
	}
}

// RequireAdmin allows only admin accounts past this point
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		roleValue, exists := c.Get(AccountRoleKey)
		if !exists {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "找不到权限信息")
			c.Abort()
			return
		}

		role := roleValue.(model.AccountRole)
		if role != model.RoleAdmin {
			accountID, _ := GetAccountID(c)
			log.Warn("Insufficient permissions", map[string]interface{}{
				"account_id": accountID,
				"role":       role,
				"path":       c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzAdminOnly, "仅限管理员操作")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetAccountID extracts the authenticated account ID from context
func GetAccountID(c *gin.Context) (uint, bool) {
	accountID, exists := c.Get(AccountIDKey)
	if !exists {
		return 0, false
	}
	return accountID.(uint), true
}

// GetAccountPhone extracts the authenticated account phone from context
func GetAccountPhone(c *gin.Context) (string, bool) {
	phone, exists := c.Get(AccountPhoneKey)
	if !exists {
		return "", false
	}
	return phone.(string), true
}

// GetAccountRole extracts the authenticated account role from context
func GetAccountRole(c *gin.Context) (model.AccountRole, bool) {
	role, exists := c.Get(AccountRoleKey)
	if !exists {
		return 0, false
	}
	return role.(model.AccountRole), true
}
