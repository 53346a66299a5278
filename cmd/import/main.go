package main

import (
	"flag"
	"log"
	"os"

	"github.com/CLEPPathfinder/CP-Backend/internal/policyimport"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	csvPath := flag.String("csv", "", "path to the registrar policy CSV")
	schoolID := flag.Uint("school", 0, "id of the school the sheet belongs to")
	replace := flag.Bool("replace", false, "overwrite the school's existing policies")
	flag.Parse()

	if *csvPath == "" || *schoolID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	err := policyimport.Run(policyimport.Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		CSVPath:     *csvPath,
		SchoolID:    uint(*schoolID),
		Replace:     *replace,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Policy import completed successfully")
}
