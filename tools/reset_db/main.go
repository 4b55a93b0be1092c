package main

import (
	"database/sql"
	"fmt"
	"log"

	"matchmaking/config"
	dbPkg "matchmaking/pkg/db"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// 子表在前，父表在后
var tables = []string{
	"message",
	"profile_view_log",
	"profile_photo",
	"shortlist",
	"interest",
	"partner_preference",
	"inquiry",
	"profile",
	"user",
}

func main() {
	// Load configuration (.env, then config/config.yaml, then env overrides)
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	db, err := sql.Open("mysql", dbPkg.DSN(cfg.Database))
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database connection test failed: %v", err)
	}

	fmt.Println("Database connected successfully")
	fmt.Printf("Database: %s\n", cfg.Database.Database)

	// Confirm
	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
	fmt.Print("Type 'YES' to confirm: ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("Operation cancelled")
		return
	}

	// Disable FK checks to avoid constraint issues
	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=0")

	failed := 0
	for _, table := range tables {
		fmt.Printf("Clearing table %s... ", table)
		// TRUNCATE 同时重置自增ID
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE `%s`", table)); err != nil {
			failed++
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Success")
		}
	}

	// Re-enable FK checks
	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=1")

	if failed > 0 {
		log.Fatalf("Database reset finished with %d failed tables", failed)
	}
	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
}
