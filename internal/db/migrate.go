package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate runs schema migrations for the given models.
func Migrate(gdb *gorm.DB, models ...any) error {
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
