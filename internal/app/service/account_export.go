package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"github.com/yunshang/merchant-admin-backend/pkg/logger"
)

const exportSheetName = "账户列表"

// exportPageSize bounds memory while paging the full result set
const exportPageSize = 500

// ExportService renders the filtered account list as an XLSX workbook
// for the admin table's export button
type ExportService interface {
	ExportAccounts(keyword string) (*excelize.File, error)
}

type exportService struct {
	accountService AccountService
}

func NewExportService(accountService AccountService) ExportService {
	return &exportService{accountService: accountService}
}

func (s *exportService) ExportAccounts(keyword string) (*excelize.File, error) {
	logger.Info("Exporting accounts to XLSX", map[string]interface{}{
		"keyword": keyword,
	})

	f := excelize.NewFile()
	index, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []interface{}{
		"ID", "手机号", "邮箱", "角色", "状态",
		"店铺名称", "联系人", "信用代码", "地址", "域名", "微信号", "备注", "创建时间",
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	rowNum := 2
	for page := 1; ; page++ {
		result, err := s.accountService.List(keyword, page, exportPageSize)
		if err != nil {
			return nil, err
		}

		for _, account := range result.Data {
			role := "普通"
			if account.Role == 1 {
				role = "管理员"
			}
			status := "正常"
			if !account.IsActive {
				status = "已冻结"
			}

			row := []interface{}{
				account.ID, account.Phone, account.Email, role, status,
				account.ShopName, account.Contact, account.CreditCode,
				account.Address, account.Domain, account.WechatID,
				account.Remark, account.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			cell := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}

		if int64(page*exportPageSize) >= result.Total {
			break
		}
	}

	logger.Info("Accounts exported", map[string]interface{}{
		"rows": rowNum - 2,
	})
	return f, nil
}
