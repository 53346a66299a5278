package schools

import (
	"fmt"

	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"gorm.io/gorm"
)

func Init(conn *gorm.DB) error {
	if err := db.EnsureSchema(conn, "directory"); err != nil {
		return fmt.Errorf("failed to ensure schema directory: %w", err)
	}

	if err := conn.AutoMigrate(&School{}, &SchoolPolicy{}, &Vote{}, &CLEPExam{}); err != nil {
		return fmt.Errorf("failed to auto-migrate directory tables: %w", err)
	}
	return nil
}
