package main

import (
	"flag"
	"log"

	"wiki-race/internal/config"
	"wiki-race/internal/db"
)

func main() {
	filePath := flag.String("file", "db/seeds.csv", "path to seed pages csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	inserted, err := db.LoadSeedPages(conn, *filePath)
	if err != nil {
		log.Fatalf("failed to load seed pages: %v", err)
	}
	log.Printf("loaded %d new seed pages from %s", inserted, *filePath)
}
