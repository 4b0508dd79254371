package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/LoctusTM/oskiosk-client/internal/client"
	"github.com/LoctusTM/oskiosk-client/internal/importer"
)

func main() {
	file := flag.String("file", "", "CSV file: name,active,tags,identifier per row")
	apiURL := flag.String("url", getEnv("KIOSK_API_URL", "http://localhost:8080"), "kiosk backend URL")
	apiToken := flag.String("token", getEnv("KIOSK_API_TOKEN", ""), "kiosk API token")
	flag.Parse()

	if *file == "" {
		log.Fatal("missing -file")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	users, err := importer.Parse(f)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}
	if len(users) == 0 {
		log.Fatal("no users to import")
	}

	backend := client.New(*apiURL, *apiToken)
	report := importer.Run(context.Background(), backend, users)
	log.Printf("imported %d/%d users (%d failed)", report.Succeeded, report.Total(), report.Failed)
	if report.Failed > 0 {
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
