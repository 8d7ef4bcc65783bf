package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"medsys/m/internal/api"
	"medsys/m/internal/config"
	"medsys/m/internal/medsysapi"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	client := medsysapi.New(cfg.APIBaseURL, cfg.RequestTimeout)
	handler := api.New(client)

	log.Printf("MedSys admin server starting on :%s (API at %s)", cfg.HTTPPort, cfg.APIBaseURL)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
