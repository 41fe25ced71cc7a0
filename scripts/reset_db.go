package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/logger"
	"hostel-backend/migrations"
)

// reset_db wipes every hostel table and seeds a demo admin with two rooms.
// Intended for local testing only.
func main() {
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	email := flag.String("email", "admin@hostel.local", "demo admin email")
	password := flag.String("password", "admin12345", "demo admin password")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This deletes all admins, rooms, tenants and rent records.")

	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	zl, err := logger.New(nil)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	if err := database.NewMigrator(pool, migrations.FS, zl).RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	// Children first; RESTART IDENTITY resets the admin id sequence
	for _, table := range []string{"login_logs", "rent_records", "tenants", "rooms", "admins"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	var adminID int
	err = tx.QueryRow(ctx,
		`INSERT INTO admins (name, email, phone, password_hash, is_active)
         VALUES ($1, $2, '', $3, TRUE) RETURNING id`,
		"Demo Admin", *email, hash,
	).Scan(&adminID)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Println("  - Created demo admin")

	rooms := []struct {
		number   string
		kind     string
		capacity int
		rent     string
	}{
		{"101", "double", 2, "6500"},
		{"102", "triple", 3, "5000"},
	}
	for _, r := range rooms {
		_, err := tx.Exec(ctx,
			`INSERT INTO rooms (id, admin_id, room_number, floor, type, capacity, rent)
             VALUES ($1, $2, $3, 1, $4, $5, $6)`,
			uuid.New(), adminID, r.number, r.kind, r.capacity, r.rent)
		if err != nil {
			log.Fatalf("Failed to create room %s: %v", r.number, err)
		}
	}
	fmt.Println("  - Created demo rooms")

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful!")
	fmt.Printf("  Email:    %s\n", *email)
	fmt.Printf("  Password: %s\n", *password)
}
