package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunshang/merchant-admin-backend/internal/app/model"
	"github.com/yunshang/merchant-admin-backend/internal/app/repository"
	"github.com/yunshang/merchant-admin-backend/internal/app/schema"
	"github.com/yunshang/merchant-admin-backend/internal/db"
)

func setupAccountServiceTest(t *testing.T) AccountService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	accountRepo := repository.NewAccountRepository(testDB)
	return NewAccountService(accountRepo)
}

func validCreateInput(phone string) *schema.CreateAccountInput {
	return &schema.CreateAccountInput{
		Phone:    phone,
		Password: "secret123",
		Email:    "merchant@example.com",
		Contact:  "张三",
		ShopName: "三宝斋",
		Address:  "北京市朝阳区",
		Remark:   "老客户",
	}
}

func TestAccountService_Create(t *testing.T) {
	svc := setupAccountServiceTest(t)

	detail, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)
	require.NotNil(t, detail)

	assert.NotZero(t, detail.ID)
	assert.Equal(t, "13800138000", detail.Phone)
	assert.Equal(t, "三宝斋", detail.ShopName)
	assert.Equal(t, "张三", detail.Contact)
	// Defaults when the optional fields are omitted
	assert.Equal(t, model.RoleRegular, detail.Role)
	assert.True(t, detail.IsActive)
}

func TestAccountService_Create_ExplicitRoleAndState(t *testing.T) {
	svc := setupAccountServiceTest(t)

	in := validCreateInput("13800138001")
	role := 1
	active := true
	in.Role = &role
	in.IsActive = &active

	detail, err := svc.Create(in)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, detail.Role)
	assert.True(t, detail.IsActive)
}

func TestAccountService_Create_ExplicitlyInactive(t *testing.T) {
	svc := setupAccountServiceTest(t)

	in := validCreateInput("13800138002")
	inactive := false
	in.IsActive = &inactive

	detail, err := svc.Create(in)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)

	// The flag must survive the round trip to storage, not just the
	// in-memory struct
	fetched, err := svc.Get(detail.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)

	// And activation still brings the account back
	require.NoError(t, svc.Activate(detail.ID))
	fetched, err = svc.Get(detail.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsActive)
}

func TestAccountService_Create_ValidationCollectsAllFailures(t *testing.T) {
	svc := setupAccountServiceTest(t)

	detail, err := svc.Create(&schema.CreateAccountInput{
		Email:  "not-an-email",
		Remark: "备注",
	})
	assert.Nil(t, detail)

	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)

	paths := make(map[string]bool)
	for _, f := range verr.Fields {
		paths[f.Path] = true
	}
	// Every failed rule is reported, not just the first
	assert.True(t, paths["phone"])
	assert.True(t, paths["password"])
	assert.True(t, paths["contact"])
	assert.True(t, paths["shop_name"])
	assert.True(t, paths["email"])
}

func TestAccountService_Create_DuplicatePhone(t *testing.T) {
	svc := setupAccountServiceTest(t)

	_, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)

	detail, err := svc.Create(validCreateInput("13800138000"))
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)
	assert.Nil(t, detail)
}

func TestAccountService_Update(t *testing.T) {
	svc := setupAccountServiceTest(t)

	created, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)

	updated, err := svc.Update(&schema.UpdateAccountInput{
		ID:       int(created.ID),
		Phone:    "13800138000",
		Contact:  "李四",
		ShopName: "四海商行",
	})
	require.NoError(t, err)
	assert.Equal(t, "李四", updated.Contact)
	assert.Equal(t, "四海商行", updated.ShopName)
	// Omitted optional account scalars stay untouched
	assert.Equal(t, "merchant@example.com", updated.Email)
	// Profile fields are a full overwrite
	assert.Empty(t, updated.Address)
}

func TestAccountService_Update_NotFound(t *testing.T) {
	svc := setupAccountServiceTest(t)

	_, err := svc.Update(&schema.UpdateAccountInput{
		ID:       9999,
		Phone:    "13800138000",
		Contact:  "张三",
		ShopName: "三宝斋",
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountService_Update_PhoneTakenByOther(t *testing.T) {
	svc := setupAccountServiceTest(t)

	first, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)
	_, err = svc.Create(validCreateInput("13900139000"))
	require.NoError(t, err)

	// Moving account one onto account two's phone must fail
	_, err = svc.Update(&schema.UpdateAccountInput{
		ID:       int(first.ID),
		Phone:    "13900139000",
		Contact:  "张三",
		ShopName: "三宝斋",
	})
	assert.ErrorIs(t, err, ErrPhoneAlreadyExists)

	// Keeping its own phone is fine
	_, err = svc.Update(&schema.UpdateAccountInput{
		ID:       int(first.ID),
		Phone:    "13800138000",
		Contact:  "张三",
		ShopName: "三宝斋",
	})
	assert.NoError(t, err)
}

func TestAccountService_FreezeAndActivate(t *testing.T) {
	svc := setupAccountServiceTest(t)

	created, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)

	require.NoError(t, svc.Freeze(created.ID))
	detail, err := svc.Get(created.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsActive)

	// Freezing again is a no-op, not an error
	require.NoError(t, svc.Freeze(created.ID))

	require.NoError(t, svc.Activate(created.ID))
	detail, err = svc.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsActive)

	assert.ErrorIs(t, svc.Freeze(9999), ErrAccountNotFound)
	assert.ErrorIs(t, svc.Activate(9999), ErrAccountNotFound)
}

func TestAccountService_Delete(t *testing.T) {
	svc := setupAccountServiceTest(t)

	first, err := svc.Create(validCreateInput("13800138000"))
	require.NoError(t, err)
	second, err := svc.Create(validCreateInput("13900139000"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(first.ID, second.ID))

	_, err = svc.Get(first.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = svc.Get(second.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountService_List(t *testing.T) {
	svc := setupAccountServiceTest(t)

	for i := 0; i < 12; i++ {
		in := validCreateInput(plusPhone("13800138000", i))
		_, err := svc.Create(in)
		require.NoError(t, err)
	}

	page, err := svc.List("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)

	page, err = svc.List("", 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)

	// Out-of-range page parameters fall back to defaults
	page, err = svc.List("", 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
}

func plusPhone(base string, n int) string {
	digits := []byte(base)
	for i := len(digits) - 1; i >= 0 && n > 0; i-- {
		d := int(digits[i]-'0') + n
		digits[i] = byte('0' + d%10)
		n = d / 10
	}
	return string(digits)
}
