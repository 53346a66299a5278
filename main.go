package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/CLEPPathfinder/CP-Backend/internal/auth"
	"github.com/CLEPPathfinder/CP-Backend/internal/db"
	"github.com/CLEPPathfinder/CP-Backend/internal/middleware"
	"github.com/CLEPPathfinder/CP-Backend/internal/policies"
	"github.com/CLEPPathfinder/CP-Backend/internal/schools"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	conn, err := db.Connect(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Connected to database")

	if err := auth.Init(conn); err != nil {
		log.Fatal(err)
	}
	if err := schools.Init(conn); err != nil {
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	authHandler := auth.NewHandler(conn)
	schoolHandler := schools.NewHandler(conn)
	policyHandler := policies.NewHandler(conn)
	sessionFetcher := auth.SessionInfo{DB: conn}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Route("/api", func(r chi.Router) {
		auth.SetupRoutes(r, authHandler)
		schools.SetupRoutes(r, schoolHandler)
		r.Mount("/admin", policies.SetupRoutes(policyHandler, sessionFetcher))
	})

	log.Printf("Server listening on port :%s...", port)

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
