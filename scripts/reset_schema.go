// Dev utility: drops the rdm schema so migrations start from scratch.
//
// Usage: DATABASE_URL=postgres://... go run ./scripts
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec("DROP SCHEMA IF EXISTS rdm CASCADE"); err != nil {
		log.Fatalf("drop schema: %v", err)
	}
	if _, err := db.Exec("DROP TABLE IF EXISTS schema_migrations"); err != nil {
		log.Fatalf("drop migration bookkeeping: %v", err)
	}

	fmt.Println("rdm schema dropped; the server will recreate it on next start")
}
