package main

import (
	"log"
	"os"

	"github.com/CLEPPathfinder/CP-Backend/internal/auth"
	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"github.com/CLEPPathfinder/CP-Backend/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	conn, err := db.Connect(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}

	if err := auth.Init(conn); err != nil {
		log.Fatal(err)
	}
	if err := schools.Init(conn); err != nil {
		log.Fatal(err)
	}

	if err := seeds.SeedAll(conn); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Database seeding completed successfully")
}
