package repositories

import (
	"context"

	"tapledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// GetByID gets a transaction by ID with the owning user
func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&txn, id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// List lists transactions matching the filter, newest first
func (r *transactionRepository) List(ctx context.Context, filter *TransactionFilter) ([]*models.Transaction, int64, error) {
	var transactions []*models.Transaction
	var total int64

	if err := r.filtered(ctx, filter).Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.filtered(ctx, filter).
		Preload("User").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// filtered applies the listing filters to a fresh query
func (r *transactionRepository) filtered(ctx context.Context, filter *TransactionFilter) *gorm.DB {
	q := r.db.WithContext(ctx)

	if filter.NFC {
		q = q.Where("nfc_tag_id IS NOT NULL")
	}
	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		// amount is coerced to text for substring matching
		q = q.Where(
			r.db.Where("amount LIKE ?", like).
				Or("transaction_type LIKE ?", like).
				Or("status LIKE ?", like),
		)
	}

	return q
}

// Update saves a transaction
func (r *transactionRepository) Update(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// Delete deletes a transaction
func (r *transactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, id).Error
}
