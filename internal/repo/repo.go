package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
)

// GormRepo is the only type touching the database. Methods run against DB,
// which is either the shared pool or a transaction handed out by InTx.
type GormRepo struct {
	DB *gorm.DB
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// InTx runs fn inside one database transaction. Everything fn does through the
// supplied repo commits or rolls back together. Nested calls use savepoints.
func (r *GormRepo) InTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// IsDuplicate reports unique-constraint violations from either dialect.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
