package services

import (
	"context"
	"errors"
	"log"
	"time"

	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/adapters/persistence/repositories"
	"tapledger/internal/core/authz"
	"tapledger/internal/core/domain"
	"tapledger/internal/pkg/cache"
	"tapledger/internal/pkg/pagination"
	"tapledger/internal/pkg/validation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// listCacheScope names the cached listing pages; flushed wholesale on
	// every mutation
	listCacheScope = "transactions:list"
	// listCacheTTL bounds staleness for entries that survive past a flush
	listCacheTTL = 5 * time.Minute
)

// TransactionService handles transaction business logic
type TransactionService struct {
	db        *gorm.DB
	txnRepo   repositories.TransactionRepository
	listCache *cache.Scope
}

// NewTransactionService creates a new transaction service
func NewTransactionService(db *gorm.DB, txnRepo repositories.TransactionRepository, store cache.Store) *TransactionService {
	return &TransactionService{
		db:        db,
		txnRepo:   txnRepo,
		listCache: cache.NewScope(store, listCacheScope, listCacheTTL),
	}
}

// ListFilters represents the optional listing filters
type ListFilters struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	NFC    bool   `json:"nfc,omitempty"`
}

// ListParams represents listing input
type ListParams struct {
	Page    int
	PerPage int
	Filters ListFilters
	Search  string
}

// ListResult represents one page of transactions
type ListResult struct {
	Data []*models.Transaction `json:"data"`
	Meta *pagination.Meta      `json:"meta"`
}

// listFingerprint is the normalized parameter set a cache key is derived
// from; identical parameters must always produce identical keys
type listFingerprint struct {
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
	Filters ListFilters `json:"filters"`
	Search  string      `json:"search"`
	UserID  uint        `json:"user_id"`
}

// List returns a filtered, paginated page of transactions, serving from
// cache when an identical query was answered within the TTL.
func (s *TransactionService) List(ctx context.Context, user *models.User, params *ListParams) (*ListResult, error) {
	// 1. Authorization
	if !authz.Can(user, authz.ActionList, nil) {
		return nil, domain.ErrForbidden
	}

	// 2. Normalize parameters and compute the cache key
	pg := pagination.New(params.Page, params.PerPage)
	key := s.listCache.Key(ctx, listFingerprint{
		Page:    pg.Page,
		PerPage: pg.PerPage,
		Filters: params.Filters,
		Search:  params.Search,
		UserID:  user.ID,
	})

	// 3. Cache hit: return the page verbatim
	var cached ListResult
	if s.listCache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	// 4. Miss: query the store and populate the cache
	rows, total, err := s.txnRepo.List(ctx, &repositories.TransactionFilter{
		Type:   params.Filters.Type,
		Status: params.Filters.Status,
		NFC:    params.Filters.NFC,
		Search: params.Search,
		Offset: pg.Offset,
		Limit:  pg.PerPage,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.Transaction{}
	}

	result := &ListResult{
		Data: rows,
		Meta: pagination.GetMeta(pg, total),
	}
	s.listCache.Set(ctx, key, result)

	return result, nil
}

// Get returns a single transaction. A missing record reports not-found
// before any authorization verdict.
func (s *TransactionService) Get(ctx context.Context, user *models.User, id uint) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	if !authz.Can(user, authz.ActionView, txn) {
		return nil, domain.ErrForbidden
	}

	return txn, nil
}

// CreateTransactionInput represents create input
type CreateTransactionInput struct {
	Amount          *float64          `json:"amount" validate:"required,gte=0"`
	TransactionType string            `json:"transaction_type" validate:"required,max=50"`
	Status          string            `json:"status" validate:"required,max=20"`
	NfcTagID        *string           `json:"nfc_tag_id" validate:"omitempty,max=50"`
	NfcData         datatypes.JSONMap `json:"nfc_data"`
	Metadata        datatypes.JSONMap `json:"metadata"`
}

// Create persists a new transaction owned by user and invalidates all
// cached listing pages.
func (s *TransactionService) Create(ctx context.Context, user *models.User, input *CreateTransactionInput) (*models.Transaction, error) {
	// 1. Authorization before any side effect
	if !authz.Can(user, authz.ActionCreate, nil) {
		return nil, domain.ErrForbidden
	}

	// 2. Validate input
	if fields := validation.Struct(input); fields != nil {
		return nil, domain.NewFieldErrors(fields)
	}

	// 3. Persist atomically
	txn := &models.Transaction{
		UserID:          user.ID,
		Amount:          *input.Amount,
		TransactionType: input.TransactionType,
		Status:          input.Status,
		NfcTagID:        input.NfcTagID,
		NfcData:         input.NfcData,
		Metadata:        input.Metadata,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(txn).Error
	})
	if err != nil {
		log.Printf("failed to create transaction: %v", err)
		return nil, err
	}

	// 4. Invalidate cached listings
	s.listCache.Flush(ctx)

	// 5. Reload with the owning user attached
	return s.txnRepo.GetByID(ctx, txn.ID)
}

// UpdateTransactionInput represents a partial update; nil fields are left
// untouched. Ownership is not patchable.
type UpdateTransactionInput struct {
	Amount          *float64           `json:"amount" validate:"omitempty,gte=0"`
	TransactionType *string            `json:"transaction_type" validate:"omitempty,max=50"`
	Status          *string            `json:"status" validate:"omitempty,max=20"`
	NfcTagID        *string            `json:"nfc_tag_id" validate:"omitempty,max=50"`
	NfcData         *datatypes.JSONMap `json:"nfc_data"`
	Metadata        *datatypes.JSONMap `json:"metadata"`
}

// apply merges the provided fields onto txn
func (in *UpdateTransactionInput) apply(txn *models.Transaction) {
	if in.Amount != nil {
		txn.Amount = *in.Amount
	}
	if in.TransactionType != nil {
		txn.TransactionType = *in.TransactionType
	}
	if in.Status != nil {
		txn.Status = *in.Status
	}
	if in.NfcTagID != nil {
		txn.NfcTagID = in.NfcTagID
	}
	if in.NfcData != nil {
		txn.NfcData = *in.NfcData
	}
	if in.Metadata != nil {
		txn.Metadata = *in.Metadata
	}
}

// Update applies a partial update to a transaction and invalidates all
// cached listing pages.
func (s *TransactionService) Update(ctx context.Context, user *models.User, id uint, input *UpdateTransactionInput) (*models.Transaction, error) {
	// 1. Load the record
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	// 2. Authorization before any side effect
	if !authz.Can(user, authz.ActionUpdate, txn) {
		return nil, domain.ErrForbidden
	}

	// 3. Validate the patch
	if fields := validation.Struct(input); fields != nil {
		return nil, domain.NewFieldErrors(fields)
	}

	// 4. Merge and persist atomically
	input.apply(txn)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(txn).Error
	})
	if err != nil {
		log.Printf("failed to update transaction %d: %v", id, err)
		return nil, err
	}

	// 5. Invalidate cached listings
	s.listCache.Flush(ctx)

	return txn, nil
}

// Delete removes a transaction and invalidates all cached listing pages.
func (s *TransactionService) Delete(ctx context.Context, user *models.User, id uint) error {
	// 1. Load the record
	txn, err := s.txnRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTransactionNotFound
		}
		return err
	}

	// 2. Authorization before any side effect
	if !authz.Can(user, authz.ActionDelete, txn) {
		return domain.ErrForbidden
	}

	// 3. Delete atomically
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&models.Transaction{}, txn.ID).Error
	})
	if err != nil {
		log.Printf("failed to delete transaction %d: %v", id, err)
		return err
	}

	// 4. Invalidate cached listings
	s.listCache.Flush(ctx)

	return nil
}
