package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yunshang/merchant-admin-backend/internal/app/schema"
	"github.com/yunshang/merchant-admin-backend/internal/app/service"
	apperrors "github.com/yunshang/merchant-admin-backend/internal/errors"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
)

type AccountController struct {
	accountService service.AccountService
	exportService  service.ExportService
}

func NewAccountController(accountService service.AccountService, exportService service.ExportService) *AccountController {
	return &AccountController{
		accountService: accountService,
		exportService:  exportService,
	}
}

type BatchDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// ListAccounts returns a keyword-filtered page of accounts
// GET /api/v1/accounts
func (ctrl *AccountController) ListAccounts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	keyword := c.Query("keyword")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	result, err := ctrl.accountService.List(keyword, page, pageSize)
	if err != nil {
		log.Error("Failed to list accounts", err, map[string]interface{}{
			"keyword": keyword,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list accounts")
		return
	}

	log.Info("Accounts listed", map[string]interface{}{
		"count": len(result.Data),
		"total": result.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"data":      result.Data,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

// GetAccount returns one account with its profile
// GET /api/v1/accounts/:id
func (ctrl *AccountController) GetAccount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := ctrl.accountService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			log.Warn("Account not found", map[string]interface{}{
				"account_id": id,
			})
			apperrors.NotFound(c, apperrors.AccountNotFound, "账户不存在")
			return
		}
		log.Error("Failed to fetch account", err, map[string]interface{}{
			"account_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"data": detail,
	})
}

// CreateAccount creates an account and its profile atomically
// POST /api/v1/accounts
func (ctrl *AccountController) CreateAccount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var in schema.CreateAccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Malformed account creation request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求数据格式错误")
		return
	}

	detail, err := ctrl.accountService.Create(&in)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			log.Warn("Account creation failed validation", map[string]interface{}{
				"field_count": len(verr.Fields),
			})
			apperrors.RespondWithValidationError(c, verr.Fields)
			return
		}
		if errors.Is(err, service.ErrPhoneAlreadyExists) {
			log.Warn("Account creation conflict: phone exists", map[string]interface{}{
				"phone": in.Phone,
			})
			apperrors.Conflict(c, apperrors.AccountPhoneExists, "手机号已被注册")
			return
		}
		log.Error("Failed to create account", err, map[string]interface{}{
			"phone": in.Phone,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create account")
		return
	}

	log.Info("Account created", map[string]interface{}{
		"account_id": detail.ID,
		"phone":      detail.Phone,
	})

	c.JSON(http.StatusCreated, gin.H{
		"ok":   true,
		"data": detail,
	})
}

// UpdateAccount updates account scalars and overwrites the profile
// PUT /api/v1/accounts/:id
func (ctrl *AccountController) UpdateAccount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var in schema.UpdateAccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Malformed account update request", map[string]interface{}{
			"account_id": id,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请求数据格式错误")
		return
	}
	// The path parameter names the record; a mismatching body id is ignored
	in.ID = int(id)

	detail, err := ctrl.accountService.Update(&in)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			log.Warn("Account update failed validation", map[string]interface{}{
				"account_id":  id,
				"field_count": len(verr.Fields),
			})
			apperrors.RespondWithValidationError(c, verr.Fields)
			return
		}
		if errors.Is(err, service.ErrAccountNotFound) {
			log.Warn("Account not found for update", map[string]interface{}{
				"account_id": id,
			})
			apperrors.NotFound(c, apperrors.AccountNotFound, "账户不存在")
			return
		}
		if errors.Is(err, service.ErrPhoneAlreadyExists) {
			log.Warn("Account update conflict: phone exists", map[string]interface{}{
				"account_id": id,
				"phone":      in.Phone,
			})
			apperrors.Conflict(c, apperrors.AccountPhoneExists, "手机号已被注册")
			return
		}
		log.Error("Failed to update account", err, map[string]interface{}{
			"account_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update account")
		return
	}

	log.Info("Account updated", map[string]interface{}{
		"account_id": detail.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"data": detail,
	})
}

// DeleteAccount removes one account and its profile
// DELETE /api/v1/accounts/:id
func (ctrl *AccountController) DeleteAccount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.accountService.Delete(id); err != nil {
		log.Error("Failed to delete account", err, map[string]interface{}{
			"account_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete account")
		return
	}

	log.Info("Account deleted", map[string]interface{}{
		"account_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "账户已删除",
	})
}

// BatchDeleteAccounts removes multiple accounts in one transaction
// POST /api/v1/accounts/batch-delete
func (ctrl *AccountController) BatchDeleteAccounts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid batch delete request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请选择要删除的账户")
		return
	}

	if err := ctrl.accountService.Delete(req.IDs...); err != nil {
		log.Error("Failed to batch delete accounts", err, map[string]interface{}{
			"account_ids": req.IDs,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete accounts")
		return
	}

	log.Info("Accounts batch deleted", map[string]interface{}{
		"account_ids": req.IDs,
		"count":       len(req.IDs),
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "账户已删除",
		"count":   len(req.IDs),
	})
}

// FreezeAccount deactivates an account; freezing a frozen account is a no-op
// POST /api/v1/accounts/:id/freeze
func (ctrl *AccountController) FreezeAccount(c *gin.Context) {
	ctrl.setAccountState(c, false)
}

// ActivateAccount reactivates a frozen account
// POST /api/v1/accounts/:id/activate
func (ctrl *AccountController) ActivateAccount(c *gin.Context) {
	ctrl.setAccountState(c, true)
}

func (ctrl *AccountController) setAccountState(c *gin.Context, active bool) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var err error
	if active {
		err = ctrl.accountService.Activate(id)
	} else {
		err = ctrl.accountService.Freeze(id)
	}
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			log.Warn("Account not found for state change", map[string]interface{}{
				"account_id": id,
				"active":     active,
			})
			apperrors.NotFound(c, apperrors.AccountNotFound, "账户不存在")
			return
		}
		log.Error("Failed to change account state", err, map[string]interface{}{
			"account_id": id,
			"active":     active,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "freeze account")
		return
	}

	message := "账户已冻结"
	if active {
		message = "账户已激活"
	}

	log.Info("Account state changed", map[string]interface{}{
		"account_id": id,
		"active":     active,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": message,
	})
}

// ExportAccounts streams the filtered account list as an XLSX download
// GET /api/v1/accounts/export
func (ctrl *AccountController) ExportAccounts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	keyword := c.Query("keyword")

	f, err := ctrl.exportService.ExportAccounts(keyword)
	if err != nil {
		log.Error("Failed to export accounts", err, map[string]interface{}{
			"keyword": keyword,
		})
		apperrors.InternalError(c, "导出失败，请稍后重试")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("accounts-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to stream export file", err, nil)
		return
	}

	log.Info("Accounts exported", map[string]interface{}{
		"keyword": keyword,
	})
}

// parseIDParam reads the :id path parameter, writing the error response
// itself when the value is not a positive integer
func parseIDParam(c *gin.Context) (uint, bool) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		log.Warn("Invalid account ID", map[string]interface{}{
			"account_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "id必须为正数")
		return 0, false
	}
	return uint(id), true
}
