package repository

import (
	"time"

	"github.com/yunshang/merchant-admin-backend/internal/app/model"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFilter narrows List results. Keyword substring-matches the
// account phone, the profile shop name or the profile contact.
type AccountFilter struct {
	Keyword  string
	Page     int // 1-based
	PageSize int
}

type AccountRepository interface {
	// CreateWithProfile inserts the account and its nested profile in one
	// atomic unit; neither row survives a failure of the other.
	CreateWithProfile(account *model.Account) error
	// UpdateWithProfile updates account scalars by id, upserts the profile
	// keyed by account_id and re-reads the merged record, all inside one
	// transaction.
	UpdateWithProfile(id uint, fields map[string]interface{}, profile *model.Profile) (*model.Account, error)
	FindByID(id uint) (*model.Account, error)
	FindByPhone(phone string) (*model.Account, error)
	List(filter AccountFilter) ([]model.Account, int64, error)
	// Delete removes profiles first, then accounts, in one transaction.
	Delete(ids ...uint) error
	// SetActive toggles the active flag on account and profile under a
	// current-state guard. Returns false when the account was already in
	// the requested state (a no-op, not an error).
	SetActive(id uint, active bool) (bool, error)
	UpdateLastLogin(id uint, at time.Time) error
	// ExpirePremium clears the premium flag on accounts whose window has
	// lapsed, returning the number of rows swept.
	ExpirePremium(now time.Time) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) CreateWithProfile(account *model.Account) error {
	logger.Debug("Creating account with profile", map[string]interface{}{
		"phone":     account.Phone,
		"shop_name": profileShopName(account),
	})

	// gorm persists the associated Profile in the same transaction as the
	// Account; a failed profile insert rolls back the account insert.
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(account).Error
	})
	if err != nil {
		logger.Error("Failed to create account in database", err, map[string]interface{}{
			"phone": account.Phone,
		})
		return err
	}

	logger.Debug("Account created in database", map[string]interface{}{
		"account_id": account.ID,
		"phone":      account.Phone,
	})
	return nil
}

func (r *accountRepository) UpdateWithProfile(id uint, fields map[string]interface{}, profile *model.Profile) (*model.Account, error) {
	logger.Debug("Updating account with profile upsert", map[string]interface{}{
		"account_id": id,
	})

	var result model.Account
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// 1. Update account scalar fields by id
		res := tx.Model(&model.Account{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Distinguish a no-change update from a missing account
			var count int64
			if err := tx.Model(&model.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		// 2. Upsert the profile keyed by the unique account_id column.
		// This restores the one-account-one-profile invariant even when
		// the profile row went missing. A recreated row inherits the
		// account's current active state; is_active is deliberately
		// absent from the assignment columns so a plain update never
		// touches the freeze state.
		var isActive bool
		if err := tx.Model(&model.Account{}).
			Select("is_active").
			Where("id = ?", id).
			Scan(&isActive).Error; err != nil {
			return err
		}
		profile.AccountID = id
		profile.IsActive = isActive
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"contact", "shop_name", "credit_code", "address",
				"domain", "wechat_id", "birthday", "remark", "updated_at",
			}),
		}).Create(profile).Error; err != nil {
			return err
		}

		// 3. Re-read the merged record inside the same transaction to
		// avoid a read-after-write race with concurrent writers
		return tx.Preload("Profile").First(&result, id).Error
	})
	if err != nil {
		logger.Error("Failed to update account in database", err, map[string]interface{}{
			"account_id": id,
		})
		return nil, err
	}

	logger.Debug("Account updated in database", map[string]interface{}{
		"account_id": result.ID,
		"phone":      result.Phone,
	})
	return &result, nil
}

func (r *accountRepository) FindByID(id uint) (*model.Account, error) {
	var account model.Account
	err := r.db.Preload("Profile").First(&account, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find account by ID in database", err, map[string]interface{}{
				"account_id": id,
			})
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByPhone(phone string) (*model.Account, error) {
	var account model.Account
	err := r.db.Preload("Profile").Where("phone = ?", phone).First(&account).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find account by phone in database", err, map[string]interface{}{
				"phone": phone,
			})
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) List(filter AccountFilter) ([]model.Account, int64, error) {
	logger.Debug("Listing accounts", map[string]interface{}{
		"keyword":   filter.Keyword,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	base := func() *gorm.DB {
		query := r.db.Model(&model.Account{})
		if filter.Keyword != "" {
			like := "%" + filter.Keyword + "%"
			query = query.
				Joins("LEFT JOIN profiles ON profiles.account_id = accounts.id").
				Where("accounts.phone LIKE ? OR profiles.shop_name LIKE ? OR profiles.contact LIKE ?", like, like, like)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		logger.Error("Failed to count accounts", err, nil)
		return nil, 0, err
	}

	var accounts []model.Account
	err := base().
		Select("accounts.*").
		Preload("Profile").
		Order("accounts.created_at DESC, accounts.id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&accounts).Error
	if err != nil {
		logger.Error("Failed to list accounts", err, nil)
		return nil, 0, err
	}

	logger.Debug("Accounts listed", map[string]interface{}{
		"count": len(accounts),
		"total": total,
	})
	return accounts, total, nil
}

func (r *accountRepository) Delete(ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}

	logger.Debug("Deleting accounts from database", map[string]interface{}{
		"account_ids": ids,
	})

	// Profiles go first so the account delete never trips the foreign key
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id IN ?", ids).Delete(&model.Profile{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Account{}).Error
	})
	if err != nil {
		logger.Error("Failed to delete accounts from database", err, map[string]interface{}{
			"account_ids": ids,
		})
		return err
	}

	logger.Debug("Accounts deleted from database", map[string]interface{}{
		"account_ids": ids,
	})
	return nil
}

func (r *accountRepository) SetActive(id uint, active bool) (bool, error) {
	logger.Debug("Toggling account active state", map[string]interface{}{
		"account_id": id,
		"active":     active,
	})

	var changed bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		// Guarded by the current state so concurrent double-freeze or
		// double-activate calls are no-ops
		res := tx.Model(&model.Account{}).
			Where("id = ? AND is_active = ?", id, !active).
			Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0

		return tx.Model(&model.Profile{}).
			Where("account_id = ? AND is_active = ?", id, !active).
			Update("is_active", active).Error
	})
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to toggle account active state", err, map[string]interface{}{
				"account_id": id,
			})
		}
		return false, err
	}

	logger.Debug("Account active state toggled", map[string]interface{}{
		"account_id": id,
		"active":     active,
		"changed":    changed,
	})
	return changed, nil
}

func (r *accountRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&model.Account{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *accountRepository) ExpirePremium(now time.Time) (int64, error) {
	res := r.db.Model(&model.Account{}).
		Where("is_premium = ? AND premium_end_at IS NOT NULL AND premium_end_at < ?", true, now).
		Update("is_premium", false)
	if res.Error != nil {
		logger.Error("Failed to expire premium accounts", res.Error, nil)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func profileShopName(account *model.Account) string {
	if account.Profile == nil {
		return ""
	}
	return account.Profile.ShopName
}
