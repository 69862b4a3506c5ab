package config

import (
	"log"
	"math/rand"

	"tapledger/internal/adapters/persistence/models"
	"tapledger/internal/core/authz"
	"tapledger/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("running database seeders...")

	if err := s.seedRolesAndPermissions(); err != nil {
		return err
	}
	if err := s.seedUsers(); err != nil {
		return err
	}

	// Sample transactions are development data only
	if s.cfg.IsDev() {
		if err := s.seedTransactions(); err != nil {
			log.Printf("transaction seeder skipped: %v", err)
		}
	}

	log.Println("database seeding completed")
	return nil
}

// seedRolesAndPermissions creates the permission set with the admin and
// user roles. Admin holds every permission; user holds none.
func (s *Seeder) seedRolesAndPermissions() error {
	permissions := make([]models.Permission, 0, len(authz.AllPermissions))
	for _, name := range authz.AllPermissions {
		var perm models.Permission
		if err := s.db.Where(models.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
			return err
		}
		permissions = append(permissions, perm)
	}

	var admin models.Role
	if err := s.db.Where(models.Role{Name: authz.RoleAdmin}).FirstOrCreate(&admin).Error; err != nil {
		return err
	}
	if err := s.db.Model(&admin).Association("Permissions").Replace(&permissions); err != nil {
		return err
	}

	var user models.Role
	return s.db.Where(models.Role{Name: authz.RoleUser}).FirstOrCreate(&user).Error
}

// seedUsers creates the default admin and regular user accounts
func (s *Seeder) seedUsers() error {
	hashed, err := password.Hash("password")
	if err != nil {
		return err
	}

	seeds := []struct {
		name  string
		email string
		role  string
	}{
		{name: "Admin", email: "admin@example.com", role: authz.RoleAdmin},
		{name: "Regular User", email: "user@example.com", role: authz.RoleUser},
	}

	for _, seed := range seeds {
		var user models.User
		err := s.db.Where(models.User{Email: seed.email}).
			Attrs(models.User{Name: seed.name, Password: hashed}).
			FirstOrCreate(&user).Error
		if err != nil {
			return err
		}

		var role models.Role
		if err := s.db.Where("name = ?", seed.role).First(&role).Error; err != nil {
			return err
		}
		if err := s.db.Model(&user).Association("Roles").Replace(&role); err != nil {
			return err
		}
	}

	return nil
}

// seedTransactions creates 30 randomized sample transactions
func (s *Seeder) seedTransactions() error {
	var count int64
	s.db.Model(&models.Transaction{}).Count(&count)
	if count > 0 {
		return nil // Already seeded
	}

	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return err
	}
	if len(users) == 0 {
		return gorm.ErrRecordNotFound
	}

	types := []string{"topup", "payment", "refund"}
	statuses := []string{"pending", "completed", "failed"}

	for i := 1; i <= 30; i++ {
		tagID := uuid.NewString()[:10]
		txn := models.Transaction{
			UserID:          users[rand.Intn(len(users))].ID,
			Amount:          float64(rand.Intn(990001)+10000) / 100,
			TransactionType: types[rand.Intn(len(types))],
			Status:          statuses[rand.Intn(len(statuses))],
			NfcTagID:        &tagID,
			NfcData:         datatypes.JSONMap{"uid": uuid.NewString()},
			Metadata:        datatypes.JSONMap{"source": "seeder", "note": "sample record"},
		}
		if err := s.db.Create(&txn).Error; err != nil {
			return err
		}
	}

	log.Println("seeded 30 sample transactions")
	return nil
}

// SeedData runs all seeders
func SeedData(db *gorm.DB, cfg *Config) error {
	return NewSeeder(db, cfg).Run()
}
