// Command apistub runs a local stand-in for the MedSys REST API so the
// admin server can be developed without the real backend.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"medsys/m/internal/config"
	"medsys/m/internal/database"
	"medsys/m/internal/migrations"
	"medsys/m/internal/stubapi"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8080"
	}

	handler := stubapi.New(db)
	log.Printf("MedSys API stub starting on :%s", port)
	if err := http.ListenAndServe(":"+port, http.StripPrefix("/api", handler.Router())); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
