package model

import (
	"time"
)

type AccountRole int // account permission level

const (
	RoleRegular AccountRole = 0 // regular merchant account
	RoleAdmin   AccountRole = 1 // administrator
)

// Account is the authentication identity record. Each account owns at most
// one Profile; after a successful update exactly one Profile row exists.
type Account struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	Phone        string      `gorm:"uniqueIndex;size:20;not null" json:"phone"` // login identifier
	Email        string      `gorm:"size:100" json:"email"`
	PasswordHash string      `gorm:"not null" json:"-"`
	Role         AccountRole `gorm:"default:0" json:"role"`
	Avatar       string      `json:"avatar"`
	// No column default: a default tag would make gorm skip the field on
	// INSERT when it is false, silently activating accounts created frozen.
	// The service layer sets the value explicitly on every create.
	IsActive bool `gorm:"not null" json:"is_active"`

	// Optional premium subscription window
	IsPremium      bool       `gorm:"default:false" json:"is_premium"`
	PremiumStartAt *time.Time `json:"premium_start_at,omitempty"`
	PremiumEndAt   *time.Time `json:"premium_end_at,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:AccountID" json:"profile,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// Profile is the business-data record one-to-one with an Account,
// keyed by the unique AccountID column.
type Profile struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	AccountID  uint   `gorm:"uniqueIndex;not null" json:"account_id"`
	Contact    string `gorm:"size:50" json:"contact"`      // contact person
	ShopName   string `gorm:"size:100" json:"shop_name"`   // merchant shop name
	CreditCode string `gorm:"size:30" json:"credit_code"`  // unified social credit code
	Address    string `gorm:"type:text" json:"address"`
	Domain     string `gorm:"size:100" json:"domain"`
	WechatID   string `gorm:"size:50" json:"wechat_id"`
	Birthday   string `gorm:"size:10" json:"birthday"` // YYYY-MM-DD
	Remark     string `gorm:"size:200" json:"remark"`
	IsActive   bool   `gorm:"not null" json:"is_active"` // mirrors the owning account, see Account.IsActive

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
