package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/CLEPPathfinder/CP-Backend/internal/auth"
	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"github.com/joho/godotenv"
)

// One-off sweep of expired session rows. The API deletes stale sessions
// lazily on first use; this tool exists for cron or manual runs.
func main() {
	_ = godotenv.Load(".env.local")

	conn, err := db.Connect(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}

	result := conn.Where("expires_at < ?", time.Now()).Delete(&auth.Session{})
	if result.Error != nil {
		log.Fatalf("Cleanup failed: %v", result.Error)
	}

	fmt.Printf("Cleaned up %d expired sessions\n", result.RowsAffected)
}
