package db

import "gorm.io/gorm"

// EnsureSchema creates the named Postgres schema when it does not exist yet.
// Feature Init functions call it before AutoMigrate so schema-qualified
// table names resolve.
func EnsureSchema(conn *gorm.DB, schema string) error {
	return conn.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
