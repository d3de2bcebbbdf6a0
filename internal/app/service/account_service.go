package service

import (
	"errors"
	"time"

	"github.com/yunshang/merchant-admin-backend/internal/app/model"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/internal/app/schema"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
	"github.com/yunshang/merchant-admin-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrPhoneAlreadyExists = errors.New("phone already exists")
)

// AccountDetail is the merged Account+Profile view returned to the admin
// UI, with profile fields flattened alongside the account fields the way
// the table consumes them. The password hash never leaves the service.
type AccountDetail struct {
	ID             uint              `json:"id"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Role           model.AccountRole `json:"role"`
	Avatar         string            `json:"avatar"`
	IsActive       bool              `json:"is_active"`
	IsPremium      bool              `json:"is_premium"`
	PremiumStartAt *time.Time        `json:"premium_start_at,omitempty"`
	PremiumEndAt   *time.Time        `json:"premium_end_at,omitempty"`
	LastLoginAt    *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	ShopName   string `json:"shop_name"`
	Contact    string `json:"contact"`
	CreditCode string `json:"credit_code"`
	Address    string `json:"address"`
	Domain     string `json:"domain"`
	WechatID   string `json:"wechat_id"`
	Birthday   string `json:"birthday"`
	Remark     string `json:"remark"`
}

// AccountPage is the paginated list envelope
type AccountPage struct {
	Data     []AccountDetail `json:"data"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type AccountService interface {
	// Create validates the input and writes the account and its profile
	// atomically. Validation failures come back as *schema.ValidationError
	// with every failed field itemized; no write happens in that case.
	Create(in *schema.CreateAccountInput) (*AccountDetail, error)
	// Update validates the input (password excluded), updates the account
	// scalars and upserts the profile in one transaction, and returns the
	// merged record re-read inside that transaction.
	Update(in *schema.UpdateAccountInput) (*AccountDetail, error)
	Get(id uint) (*AccountDetail, error)
	List(keyword string, page, pageSize int) (*AccountPage, error)
	Delete(ids ...uint) error
	Freeze(id uint) error
	Activate(id uint) error
}

type accountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) AccountService {
	return &accountService{accountRepo: accountRepo}
}

func (s *accountService) Create(in *schema.CreateAccountInput) (*AccountDetail, error) {
	logger.Info("Creating account", map[string]interface{}{
		"phone":     in.Phone,
		"shop_name": in.ShopName,
	})

	if verr := schema.ValidateCreateAccount(in); verr != nil {
		logger.Warn("Account creation rejected by validation", map[string]interface{}{
			"phone":       in.Phone,
			"field_count": len(verr.Fields),
		})
		return nil, verr
	}

	existing, err := s.accountRepo.FindByPhone(in.Phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		logger.Warn("Account creation failed: phone already exists", map[string]interface{}{
			"phone": in.Phone,
		})
		return nil, ErrPhoneAlreadyExists
	}

	hashed, err := util.HashPassword(in.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"phone": in.Phone,
		})
		return nil, err
	}

	role := model.RoleRegular
	if in.Role != nil {
		role = model.AccountRole(*in.Role)
	}
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	account := &model.Account{
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         role,
		Avatar:       in.Avatar,
		IsActive:     isActive,
		Profile: &model.Profile{
			Contact:    in.Contact,
			ShopName:   in.ShopName,
			CreditCode: in.CreditCode,
			Address:    in.Address,
			Domain:     in.Domain,
			WechatID:   in.WechatID,
			Birthday:   in.Birthday,
			Remark:     in.Remark,
			IsActive:   isActive,
		},
	}

	if err := s.accountRepo.CreateWithProfile(account); err != nil {
		logger.Error("Failed to create account", err, map[string]interface{}{
			"phone": in.Phone,
		})
		return nil, err
	}

	logger.Info("Account created successfully", map[string]interface{}{
		"account_id": account.ID,
		"phone":      account.Phone,
	})
	return toDetail(account), nil
}

func (s *accountService) Update(in *schema.UpdateAccountInput) (*AccountDetail, error) {
	logger.Info("Updating account", map[string]interface{}{
		"account_id": in.ID,
	})

	if verr := schema.ValidateUpdateAccount(in); verr != nil {
		logger.Warn("Account update rejected by validation", map[string]interface{}{
			"account_id":  in.ID,
			"field_count": len(verr.Fields),
		})
		return nil, verr
	}

	id := uint(in.ID)

	// The phone may move to this account only if no other account holds it
	existing, err := s.accountRepo.FindByPhone(in.Phone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != id {
		logger.Warn("Account update failed: phone already exists", map[string]interface{}{
			"account_id": in.ID,
			"phone":      in.Phone,
		})
		return nil, ErrPhoneAlreadyExists
	}

	// Account scalars follow partial-update semantics: optional fields
	// left empty are not touched. Profile fields are a full overwrite,
	// matching the admin form which always submits the whole record.
	fields := map[string]interface{}{
		"phone": in.Phone,
	}
	if in.Email != "" {
		fields["email"] = in.Email
	}
	if in.Avatar != "" {
		fields["avatar"] = in.Avatar
	}
	if in.Role != nil {
		fields["role"] = *in.Role
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	profile := &model.Profile{
		Contact:    in.Contact,
		ShopName:   in.ShopName,
		CreditCode: in.CreditCode,
		Address:    in.Address,
		Domain:     in.Domain,
		WechatID:   in.WechatID,
		Birthday:   in.Birthday,
		Remark:     in.Remark,
	}

	account, err := s.accountRepo.UpdateWithProfile(id, fields, profile)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		logger.Error("Failed to update account", err, map[string]interface{}{
			"account_id": in.ID,
		})
		return nil, err
	}

	logger.Info("Account updated successfully", map[string]interface{}{
		"account_id": account.ID,
	})
	return toDetail(account), nil
}

func (s *accountService) Get(id uint) (*AccountDetail, error) {
	account, err := s.accountRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return toDetail(account), nil
}

func (s *accountService) List(keyword string, page, pageSize int) (*AccountPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	accounts, total, err := s.accountRepo.List(repository.AccountFilter{
		Keyword:  keyword,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, err
	}

	details := make([]AccountDetail, len(accounts))
	for i := range accounts {
		details[i] = *toDetail(&accounts[i])
	}

	return &AccountPage{
		Data:     details,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *accountService) Delete(ids ...uint) error {
	logger.Info("Deleting accounts", map[string]interface{}{
		"account_ids": ids,
	})
	return s.accountRepo.Delete(ids...)
}

func (s *accountService) Freeze(id uint) error {
	changed, err := s.accountRepo.SetActive(id, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if !changed {
		logger.Debug("Account already frozen", map[string]interface{}{
			"account_id": id,
		})
	}
	return nil
}

func (s *accountService) Activate(id uint) error {
	changed, err := s.accountRepo.SetActive(id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if !changed {
		logger.Debug("Account already active", map[string]interface{}{
			"account_id": id,
		})
	}
	return nil
}

func toDetail(account *model.Account) *AccountDetail {
	detail := &AccountDetail{
		ID:             account.ID,
		Email:          account.Email,
		Phone:          account.Phone,
		Role:           account.Role,
		Avatar:         account.Avatar,
		IsActive:       account.IsActive,
		IsPremium:      account.IsPremium,
		PremiumStartAt: account.PremiumStartAt,
		PremiumEndAt:   account.PremiumEndAt,
		LastLoginAt:    account.LastLoginAt,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}

	if account.Profile != nil {
		detail.ShopName = account.Profile.ShopName
		detail.Contact = account.Profile.Contact
		detail.CreditCode = account.Profile.CreditCode
		detail.Address = account.Profile.Address
		detail.Domain = account.Profile.Domain
		detail.WechatID = account.Profile.WechatID
		detail.Birthday = account.Profile.Birthday
		detail.Remark = account.Profile.Remark
	}
	return detail
}
