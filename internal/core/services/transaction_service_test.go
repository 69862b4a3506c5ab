package services

import (
	"context"
	"testing"
	"time"

	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/adapters/persistence/repositories"
	"tapledger/internal/core/authz"
	"tapledger/internal/core/domain"
	"tapledger/internal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestTransactionService(t *testing.T) (*TransactionService, *gorm.DB) {
	t.Helper()

	db := initTestDB(t)
	svc := NewTransactionService(db, repositories.NewTransactionRepository(db), cache.NewMemoryStore())
	return svc, db
}

// seedUser persists a user holding roleName with the given permissions and
// returns it fully preloaded.
func seedUser(t *testing.T, db *gorm.DB, email, roleName string, perms ...string) *models.User {
	t.Helper()

	var permModels []models.Permission
	for _, name := range perms {
		var p models.Permission
		require.NoError(t, db.Where(models.Permission{Name: name}).FirstOrCreate(&p).Error)
		permModels = append(permModels, p)
	}

	var role models.Role
	require.NoError(t, db.Where(models.Role{Name: roleName}).FirstOrCreate(&role).Error)
	if len(permModels) > 0 {
		require.NoError(t, db.Model(&role).Association("Permissions").Append(&permModels))
	}

	user := &models.User{Name: email, Email: email, Password: "irrelevant"}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Model(user).Association("Roles").Append(&role))

	var loaded models.User
	require.NoError(t, db.Preload("Roles.Permissions").First(&loaded, user.ID).Error)
	return &loaded
}

func seedTransaction(t *testing.T, db *gorm.DB, txn *models.Transaction) *models.Transaction {
	t.Helper()
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func TestTransactionService_List_Forbidden(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	plain := seedUser(t, db, "plain@example.com", authz.RoleUser)

	_, err := svc.List(ctx, plain, &ListParams{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransactionService_List_Pagination(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	for i := 0; i < 30; i++ {
		seedTransaction(t, db, &models.Transaction{
			UserID:          admin.ID,
			Amount:          float64(i + 1),
			TransactionType: "topup",
			Status:          "completed",
		})
	}

	page1, err := svc.List(ctx, admin, &ListParams{Page: 1, PerPage: 15})
	require.NoError(t, err)
	assert.Len(t, page1.Data, 15)
	assert.Equal(t, int64(30), page1.Meta.Total)
	assert.Equal(t, 1, page1.Meta.CurrentPage)
	assert.Equal(t, 2, page1.Meta.LastPage)

	page2, err := svc.List(ctx, admin, &ListParams{Page: 2, PerPage: 15})
	require.NoError(t, err)
	assert.Len(t, page2.Data, 15)
	assert.Equal(t, 2, page2.Meta.CurrentPage)

	// Past the last page
	page3, err := svc.List(ctx, admin, &ListParams{Page: 3, PerPage: 15})
	require.NoError(t, err)
	assert.Empty(t, page3.Data)
	assert.Equal(t, int64(30), page3.Meta.Total)
}

func TestTransactionService_List_OrderedNewestFirst(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedTransaction(t, db, &models.Transaction{
			UserID:          admin.ID,
			Amount:          float64(i + 1),
			TransactionType: "topup",
			Status:          "completed",
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
	}

	result, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	require.Len(t, result.Data, 3)
	assert.Equal(t, 3.0, result.Data[0].Amount)
	assert.Equal(t, 1.0, result.Data[2].Amount)
}

func TestTransactionService_List_Filters(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	tag := "tag-001"
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 10, TransactionType: "topup", Status: "completed", NfcTagID: &tag})
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 20, TransactionType: "payment", Status: "pending"})
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 30, TransactionType: "payment", Status: "completed"})

	byType, err := svc.List(ctx, admin, &ListParams{Filters: ListFilters{Type: "payment"}})
	require.NoError(t, err)
	assert.Len(t, byType.Data, 2)

	byStatus, err := svc.List(ctx, admin, &ListParams{Filters: ListFilters{Status: "pending"}})
	require.NoError(t, err)
	assert.Len(t, byStatus.Data, 1)

	combined, err := svc.List(ctx, admin, &ListParams{Filters: ListFilters{Type: "payment", Status: "completed"}})
	require.NoError(t, err)
	require.Len(t, combined.Data, 1)
	assert.Equal(t, 30.0, combined.Data[0].Amount)

	nfcOnly, err := svc.List(ctx, admin, &ListParams{Filters: ListFilters{NFC: true}})
	require.NoError(t, err)
	require.Len(t, nfcOnly.Data, 1)
	assert.Equal(t, "tag-001", *nfcOnly.Data[0].NfcTagID)
}

func TestTransactionService_List_Search(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 123.5, TransactionType: "topup", Status: "completed"})
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 50, TransactionType: "refund", Status: "pending"})

	byType, err := svc.List(ctx, admin, &ListParams{Search: "refu"})
	require.NoError(t, err)
	require.Len(t, byType.Data, 1)
	assert.Equal(t, "refund", byType.Data[0].TransactionType)

	byStatus, err := svc.List(ctx, admin, &ListParams{Search: "pend"})
	require.NoError(t, err)
	assert.Len(t, byStatus.Data, 1)

	// Amount participates in the substring match
	byAmount, err := svc.List(ctx, admin, &ListParams{Search: "123"})
	require.NoError(t, err)
	require.Len(t, byAmount.Data, 1)
	assert.Equal(t, 123.5, byAmount.Data[0].Amount)

	none, err := svc.List(ctx, admin, &ListParams{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none.Data)
}

func TestTransactionService_List_ServesFromCache(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 10, TransactionType: "topup", Status: "completed"})

	first, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Meta.Total)

	// A row inserted behind the service's back stays invisible while the
	// cached page is live
	seedTransaction(t, db, &models.Transaction{UserID: admin.ID, Amount: 20, TransactionType: "topup", Status: "completed"})

	second, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Meta.Total)
}

func TestTransactionService_Mutations_InvalidateCache(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)

	before, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.Meta.Total)

	amount := 42.0
	created, err := svc.Create(ctx, admin, &CreateTransactionInput{
		Amount:          &amount,
		TransactionType: "topup",
		Status:          "pending",
	})
	require.NoError(t, err)

	afterCreate, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), afterCreate.Meta.Total)

	newStatus := "completed"
	_, err = svc.Update(ctx, admin, created.ID, &UpdateTransactionInput{Status: &newStatus})
	require.NoError(t, err)

	afterUpdate, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	require.Len(t, afterUpdate.Data, 1)
	assert.Equal(t, "completed", afterUpdate.Data[0].Status)

	require.NoError(t, svc.Delete(ctx, admin, created.ID))

	afterDelete, err := svc.List(ctx, admin, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), afterDelete.Meta.Total)
}

func TestTransactionService_Create(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	creator := seedUser(t, db, "creator@example.com", authz.RoleUser, authz.PermCreateTransactions)
	tag := "tag-xyz"
	amount := 99.99

	txn, err := svc.Create(ctx, creator, &CreateTransactionInput{
		Amount:          &amount,
		TransactionType: "payment",
		Status:          "pending",
		NfcTagID:        &tag,
		NfcData:         datatypes.JSONMap{"uid": "04:a2:b3"},
		Metadata:        datatypes.JSONMap{"terminal": "pos-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, creator.ID, txn.UserID)
	assert.Equal(t, 99.99, txn.Amount)
	assert.Equal(t, "tag-xyz", *txn.NfcTagID)
	assert.Equal(t, "04:a2:b3", txn.NfcData["uid"])

	// The owning user comes back attached
	require.NotNil(t, txn.User)
	assert.Equal(t, "creator@example.com", txn.User.Email)
}

func TestTransactionService_Create_Forbidden(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	plain := seedUser(t, db, "plain@example.com", authz.RoleUser)
	amount := 10.0

	_, err := svc.Create(ctx, plain, &CreateTransactionInput{
		Amount:          &amount,
		TransactionType: "topup",
		Status:          "pending",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransactionService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)

	negative := -5.0
	_, err := svc.Create(ctx, admin, &CreateTransactionInput{
		Amount:          &negative,
		TransactionType: "topup",
		Status:          "pending",
	})
	var fields *domain.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields.Fields, "amount")

	// Missing required fields
	zero := 0.0
	_, err = svc.Create(ctx, admin, &CreateTransactionInput{Amount: &zero})
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields.Fields, "transaction_type")
	assert.Contains(t, fields.Fields, "status")

	// Zero is a legal amount
	txn, err := svc.Create(ctx, admin, &CreateTransactionInput{
		Amount:          &zero,
		TransactionType: "topup",
		Status:          "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, txn.Amount)
}

func TestTransactionService_Get_Ownership(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com", authz.RoleUser)
	other := seedUser(t, db, "other@example.com", authz.RoleUser)
	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)

	txn := seedTransaction(t, db, &models.Transaction{UserID: owner.ID, Amount: 10, TransactionType: "topup", Status: "pending"})

	got, err := svc.Get(ctx, owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	_, err = svc.Get(ctx, other, txn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, admin, txn.ID)
	assert.NoError(t, err)
}

func TestTransactionService_Get_NotFound(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)

	_, err := svc.Get(ctx, admin, 9999)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionService_Update_PartialMerge(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com", authz.RoleAdmin)
	txn := seedTransaction(t, db, &models.Transaction{
		UserID:          admin.ID,
		Amount:          100,
		TransactionType: "payment",
		Status:          "pending",
		Metadata:        datatypes.JSONMap{"terminal": "pos-1"},
	})

	newStatus := "completed"
	updated, err := svc.Update(ctx, admin, txn.ID, &UpdateTransactionInput{Status: &newStatus})
	require.NoError(t, err)

	// Untouched fields survive the patch
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, 100.0, updated.Amount)
	assert.Equal(t, "payment", updated.TransactionType)
	assert.Equal(t, "pos-1", updated.Metadata["terminal"])
}

func TestTransactionService_Update_AuthzAndValidation(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com", authz.RoleUser)
	updater := seedUser(t, db, "updater@example.com", authz.RoleUser, authz.PermUpdateTransactions)

	txn := seedTransaction(t, db, &models.Transaction{UserID: owner.ID, Amount: 10, TransactionType: "topup", Status: "pending"})

	// Ownership alone does not grant update
	newStatus := "completed"
	_, err := svc.Update(ctx, owner, txn.ID, &UpdateTransactionInput{Status: &newStatus})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The permission holder may update records they do not own
	updated, err := svc.Update(ctx, updater, txn.ID, &UpdateTransactionInput{Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)

	// A bad patch is rejected before persisting
	negative := -1.0
	_, err = svc.Update(ctx, updater, txn.ID, &UpdateTransactionInput{Amount: &negative})
	var fields *domain.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields.Fields, "amount")

	// Missing record reports not-found before any verdict
	_, err = svc.Update(ctx, updater, 9999, &UpdateTransactionInput{Status: &newStatus})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionService_Delete(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com", authz.RoleUser)
	deleter := seedUser(t, db, "deleter@example.com", authz.RoleUser, authz.PermDeleteTransactions)

	txn := seedTransaction(t, db, &models.Transaction{UserID: owner.ID, Amount: 10, TransactionType: "topup", Status: "pending"})

	// Ownership alone does not grant delete
	err := svc.Delete(ctx, owner, txn.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, deleter, txn.ID))

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Gone records report not-found
	err = svc.Delete(ctx, deleter, txn.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransactionService_CacheKeysVaryByUser(t *testing.T) {
	t.Parallel()

	svc, db := newTestTransactionService(t)
	ctx := context.Background()

	adminA := seedUser(t, db, "a@example.com", authz.RoleAdmin)
	adminB := seedUser(t, db, "b@example.com", authz.RoleAdmin)

	for i := 0; i < 2; i++ {
		seedTransaction(t, db, &models.Transaction{
			UserID:          adminA.ID,
			Amount:          float64(i),
			TransactionType: "topup",
			Status:          "completed",
		})
	}

	// Prime adminA's cache entry
	first, err := svc.List(ctx, adminA, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Meta.Total)

	// A row inserted behind the service's back is stale for adminA but
	// visible to adminB, whose parameters hash to a different key
	seedTransaction(t, db, &models.Transaction{
		UserID:          adminA.ID,
		Amount:          99,
		TransactionType: "topup",
		Status:          "completed",
	})

	stale, err := svc.List(ctx, adminA, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stale.Meta.Total)

	fresh, err := svc.List(ctx, adminB, &ListParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), fresh.Meta.Total)
}
