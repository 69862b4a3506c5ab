package repositories

import (
	"context"

	"tapledger/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	AssignRole(ctx context.Context, user *models.User, roleName string) error
}

// AccessTokenRepository defines access token repository interface
type AccessTokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error
	// GetByTokenHash loads an active token with its user's roles and
	// permissions preloaded.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.AccessToken, error)
	TouchLastUsed(ctx context.Context, id uint) error
	// DeleteByTokenHash removes the token; deleting an absent token is a
	// no-op, which makes logout idempotent.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteStale(ctx context.Context, unusedForDays int) (int64, error)
}

// TransactionFilter holds the normalized listing parameters
type TransactionFilter struct {
	Type   string
	Status string
	NFC    bool
	Search string
	Offset int
	Limit  int
}

// TransactionRepository defines transaction repository interface
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*models.Transaction, int64, error)
	Update(ctx context.Context, txn *models.Transaction) error
	Delete(ctx context.Context, id uint) error
}
