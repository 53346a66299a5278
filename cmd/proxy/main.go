package main

import (
	"log"
	"net/http"
	"os"

	"github.com/CLEPPathfinder/CP-Backend/internal/proxy"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// The browser-facing tier. Holds the session token in an httpOnly cookie and
// forwards everything else to the backend.
func main() {
	_ = godotenv.Load(".env.local")

	backend := os.Getenv("BACKEND_URL")
	if backend == "" {
		backend = "http://localhost:5001"
	}

	port := os.Getenv("PROXY_PORT")
	if port == "" {
		port = "3000"
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Mount("/", proxy.SetupRoutes(proxy.NewHandler(backend)))

	log.Printf("Proxy listening on port :%s, forwarding to %s...", port, backend)

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
