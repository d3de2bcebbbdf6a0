// Package schema holds the declarative validation rules for account
// write operations. Validation never short-circuits: every field rule is
// evaluated and all failures are reported together, so the caller can
// surface the complete list at once.
package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries all field failures of one validation run
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CreateAccountInput is the validated shape for account creation.
// Account fields and Profile fields arrive flattened, the way the
// admin form submits them.
type CreateAccountInput struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required,min=11"`
	Password string `json:"password" validate:"required,min=6"`
	Role     *int   `json:"role" validate:"omitempty,oneof=0 1"`
	Avatar   string `json:"avatar"`
	IsActive *bool  `json:"is_active"`

	Contact    string `json:"contact" validate:"required"`
	ShopName   string `json:"shop_name" validate:"required"`
	CreditCode string `json:"credit_code"`
	Address    string `json:"address"`
	Domain     string `json:"domain"`
	WechatID   string `json:"wechat_id"`
	Birthday   string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Remark     string `json:"remark" validate:"omitempty,max=200"`
}

// UpdateAccountInput is the create shape minus the password, plus a
// mandatory positive id. Passwords are never changed through update.
type UpdateAccountInput struct {
	ID       int    `json:"id" validate:"required,gt=0"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"required,min=11"`
	Role     *int   `json:"role" validate:"omitempty,oneof=0 1"`
	Avatar   string `json:"avatar"`
	IsActive *bool  `json:"is_active"`

	Contact    string `json:"contact" validate:"required"`
	ShopName   string `json:"shop_name" validate:"required"`
	CreditCode string `json:"credit_code"`
	Address    string `json:"address"`
	Domain     string `json:"domain"`
	WechatID   string `json:"wechat_id"`
	Birthday   string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Remark     string `json:"remark" validate:"omitempty,max=200"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// Report field paths by json tag, matching the wire format
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateCreateAccount runs the creation rules against in, normalizing
// whitespace first. Returns nil when the input is valid.
func ValidateCreateAccount(in *CreateAccountInput) *ValidationError {
	in.Phone = strings.TrimSpace(in.Phone)
	return collect(getValidator().Struct(in))
}

// ValidateUpdateAccount runs the update rules against in
func ValidateUpdateAccount(in *UpdateAccountInput) *ValidationError {
	in.Phone = strings.TrimSpace(in.Phone)
	return collect(getValidator().Struct(in))
}

func collect(err error) *ValidationError {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: []FieldError{{Path: "", Message: "输入数据无效"}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Path:    fe.Field(),
			Message: messageFor(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// messageFor maps a rule failure to the user-facing message shown inline
// by the admin form
func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "phone":
		if fe.Tag() == "required" {
			return "手机号必填"
		}
		return "手机号长度不足"
	case "password":
		if fe.Tag() == "required" {
			return "密码必填"
		}
		return "密码长度不能少于6位"
	case "email":
		return "邮箱格式错误"
	case "contact":
		return "联系人必填"
	case "shop_name":
		return "店铺名称必填"
	case "remark":
		return "备注不能超过200字"
	case "role":
		return "角色不合法"
	case "birthday":
		return "生日格式错误"
	case "id":
		if fe.Tag() == "required" {
			return "id必填"
		}
		return "id必须为正数"
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s必填", fe.Field())
	case "min":
		return fmt.Sprintf("%s长度不足", fe.Field())
	case "max":
		return fmt.Sprintf("%s超出长度限制", fe.Field())
	default:
		return fmt.Sprintf("%s格式错误", fe.Field())
	}
}
