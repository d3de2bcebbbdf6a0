package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yunshang/merchant-admin-backend/config"
	"github.com/yunshang/merchant-admin-backend/internal/app/model"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/internal/db"
	"github.com/yunshang/merchant-admin-backend/pkg/util"
)

const defaultPassword = "changeme123"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage:\n  seed admin <phone> <password>\n  seed sample <count>\n  seed import <xlsx_file_path>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	accountRepo := repository.NewAccountRepository(db.GetDB())

	switch os.Args[1] {
	case "admin":
		if len(os.Args) < 4 {
			log.Fatal("Usage: seed admin <phone> <password>")
		}
		seedAdmin(accountRepo, os.Args[2], os.Args[3])
	case "sample":
		count := 10
		if len(os.Args) >= 3 {
			if n, err := strconv.Atoi(os.Args[2]); err == nil {
				count = n
			}
		}
		seedSample(accountRepo, count)
	case "import":
		if len(os.Args) < 3 {
			log.Fatal("Usage: seed import <xlsx_file_path>")
		}
		importAccounts(accountRepo, os.Args[2])
	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func seedAdmin(accountRepo repository.AccountRepository, phone, password string) {
	hashed, err := util.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	account := &model.Account{
		Phone:        phone,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
		IsActive:     true,
		Profile: &model.Profile{
			Contact:  "系统管理员",
			ShopName: "平台",
			IsActive: true,
		},
	}

	if err := accountRepo.CreateWithProfile(account); err != nil {
		log.Fatal("Failed to create admin account:", err)
	}

	fmt.Printf("Admin account created: id=%d phone=%s\n", account.ID, account.Phone)
}

func seedSample(accountRepo repository.AccountRepository, count int) {
	fmt.Printf("Seeding %d sample merchant accounts...\n", count)

	hashed, err := util.HashPassword(defaultPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	created := 0
	for i := 0; i < count; i++ {
		account := &model.Account{
			Phone:        util.GenerateRandomPhone(),
			PasswordHash: hashed,
			Role:         model.RoleRegular,
			IsActive:     true,
			Profile: &model.Profile{
				Contact:  fmt.Sprintf("联系人%d", i+1),
				ShopName: fmt.Sprintf("示例店铺%d", i+1),
				IsActive: true,
			},
		}

		if err := accountRepo.CreateWithProfile(account); err != nil {
			// A random phone can collide with an existing row
			fmt.Printf("Skipped one account: %v\n", err)
			continue
		}
		created++
	}

	fmt.Printf("Done. Created %d of %d sample accounts.\n", created, count)
}

// importAccounts reads merchant accounts from an XLSX export.
// Expected columns: phone, email, contact, shop_name, address, remark.
func importAccounts(accountRepo repository.AccountRepository, filePath string) {
	fmt.Printf("Reading XLSX file: %s\n", filePath)

	accounts, err := readAccountsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total accounts to import: %d\n", len(accounts))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	created := 0
	for i := range accounts {
		if err := accountRepo.CreateWithProfile(&accounts[i]); err != nil {
			fmt.Printf("Skipped %s: %v\n", accounts[i].Phone, err)
			continue
		}
		created++

		if created%100 == 0 {
			fmt.Printf("Imported %d accounts...\n", created)
		}
	}

	fmt.Println("Import completed!")
	fmt.Printf("Total accounts imported: %d\n", created)
}

func readAccountsFromXLSX(filePath string) ([]model.Account, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	hashed, err := util.HashPassword(defaultPassword)
	if err != nil {
		return nil, err
	}

	var accounts []model.Account
	seenPhones := make(map[string]bool)
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}
		if len(row) < 4 {
			skippedCount++
			continue
		}

		phone := strings.TrimSpace(row[0])
		email := strings.TrimSpace(row[1])
		contact := strings.TrimSpace(row[2])
		shopName := strings.TrimSpace(row[3])
		var address, remark string
		if len(row) > 4 {
			address = strings.TrimSpace(row[4])
		}
		if len(row) > 5 {
			remark = strings.TrimSpace(row[5])
		}

		if phone == "" || contact == "" || shopName == "" {
			skippedCount++
			continue
		}
		if seenPhones[phone] {
			skippedCount++
			continue
		}
		seenPhones[phone] = true

		accounts = append(accounts, model.Account{
			Phone:        phone,
			Email:        email,
			PasswordHash: hashed,
			Role:         model.RoleRegular,
			IsActive:     true,
			Profile: &model.Profile{
				Contact:  contact,
				ShopName: shopName,
				Address:  address,
				Remark:   remark,
				IsActive: true,
			},
		})
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid accounts: %d\n", len(accounts))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return accounts, nil
}
