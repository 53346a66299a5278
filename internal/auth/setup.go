package auth

import (
	"fmt"

	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"gorm.io/gorm"
)

func Init(conn *gorm.DB) error {
	if err := db.EnsureSchema(conn, "app_auth"); err != nil {
		return fmt.Errorf("failed to ensure schema app_auth: %w", err)
	}

	if err := conn.AutoMigrate(&User{}, &Session{}); err != nil {
		return fmt.Errorf("failed to auto-migrate auth tables: %w", err)
	}
	return nil
}
