package service

import (
	"context"
	"errors"
	"time"

	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
	"github.com/yunshang/merchant-admin-backend/pkg/redis"
	"github.com/yunshang/merchant-admin-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrAccountFrozen      = errors.New("account is frozen")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

type AuthService interface {
	// Login authenticates by phone and password. Frozen accounts are
	// rejected even with valid credentials.
	Login(phone, password string) (*AccountDetail, *util.TokenPair, error)
	// Refresh exchanges a valid refresh token for a new token pair
	Refresh(refreshToken string) (*util.TokenPair, error)
	// Logout revokes the access token for the remainder of its lifetime
	Logout(ctx context.Context, accessToken string) error
	GetByID(id uint) (*AccountDetail, error)
}

type authService struct {
	accountRepo   repository.AccountRepository
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		accountRepo:   accountRepo,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Login(phone, password string) (*AccountDetail, *util.TokenPair, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"phone": phone,
	})

	account, err := s.accountRepo.FindByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: account not found", map[string]interface{}{
				"phone": phone,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find account", err, map[string]interface{}{
			"phone": phone,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(account.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"phone":      phone,
			"account_id": account.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		logger.Warn("Login failed: account frozen", map[string]interface{}{
			"phone":      phone,
			"account_id": account.ID,
		})
		return nil, nil, ErrAccountFrozen
	}

	tokens, err := util.GenerateTokenPair(
		account.ID,
		account.Phone,
		int(account.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"account_id": account.ID,
		})
		return nil, nil, err
	}

	now := time.Now()
	if err := s.accountRepo.UpdateLastLogin(account.ID, now); err != nil {
		// Login still succeeds; the timestamp is informational
		logger.Warn("Failed to record last login time", map[string]interface{}{
			"account_id": account.ID,
		})
	} else {
		account.LastLoginAt = &now
	}

	logger.Info("Account logged in successfully", map[string]interface{}{
		"account_id": account.ID,
		"phone":      account.Phone,
		"role":       account.Role,
	})

	return toDetail(account), tokens, nil
}

func (s *authService) Refresh(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil {
		logger.Warn("Refresh failed: invalid token", nil)
		return nil, ErrInvalidRefresh
	}
	if claims.TokenType != "refresh" {
		logger.Warn("Refresh failed: wrong token type", map[string]interface{}{
			"token_type": claims.TokenType,
		})
		return nil, ErrInvalidRefresh
	}

	// Re-check the account: a freeze or deletion after the refresh token
	// was issued must cut the session short
	account, err := s.accountRepo.FindByID(claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !account.IsActive {
		logger.Warn("Refresh failed: account frozen", map[string]interface{}{
			"account_id": account.ID,
		})
		return nil, ErrAccountFrozen
	}

	tokens, err := util.GenerateTokenPair(
		account.ID,
		account.Phone,
		int(account.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"account_id": account.ID,
		})
		return nil, err
	}

	logger.Info("Tokens refreshed", map[string]interface{}{
		"account_id": account.ID,
	})
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		// An invalid or already-expired token needs no revocation
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	if err := redis.BlacklistToken(ctx, accessToken, remaining); err != nil {
		return err
	}

	logger.Info("Account logged out", map[string]interface{}{
		"account_id": claims.AccountID,
	})
	return nil
}

func (s *authService) GetByID(id uint) (*AccountDetail, error) {
	account, err := s.accountRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		logger.Error("Failed to fetch account", err, map[string]interface{}{
			"account_id": id,
		})
		return nil, err
	}
	return toDetail(account), nil
}
