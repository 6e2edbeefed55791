package main

import (
	"context"
	"flag"
	"log"
	"servicearea-service/internal/adapters/repositories"
	"servicearea-service/internal/config"
	"servicearea-service/internal/platform/db"
	"servicearea-service/internal/services"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// dbtool prepares the Postgres schema used by the server when DATABASE_URL
// is set. With -list it prints the registered result runs.
func main() {
	list := flag.Bool("list", false, "print run ids registered under the Results group")
	flag.Parse()

	config.LoadDotEnv()

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	log.Println("Initializing database schema...")
	if err := repositories.InitPostgresSchema(ctx, db); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if !*list {
		return
	}

	ids, err := repositories.NewSQLServiceAreaRepository(db).ListResults(ctx, services.ResultsGroup)
	if err != nil {
		log.Fatalf("list results failed: %v", err)
	}
	for _, id := range ids {
		log.Printf("run_id=%s", id)
	}
	log.Printf("runs=%d", len(ids))
}
