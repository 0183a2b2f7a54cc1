package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	staffdomain "github.com/shawnuphold/wishpark/internal/staff/domain"
	"github.com/shawnuphold/wishpark/internal/staff/password"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@wishpark.app"
	defaultAdminPassword = "changeme"
	defaultAdminDisplay  = "Wishpark Admin"
)

// EnsureDefaultAdmin seeds the first operator account so a fresh install is
// usable. It never touches an existing account.
func EnsureDefaultAdmin(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing staffdomain.Staff
		err := tx.Where("email = ?", defaultAdminEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		admin := staffdomain.Staff{
			ID:           node.Generate(),
			Email:        strings.ToLower(defaultAdminEmail),
			DisplayName:  defaultAdminDisplay,
			PasswordHash: hashed,
			Role:         staffdomain.RoleAdmin,
			IsDefault:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&admin).Error
	})
}
