package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"reviewhub/database"
	"reviewhub/internal/importer"
)

func main() {
	dir := flag.String("dir", "data", "directory containing the seed CSV files")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.Connect(dbURL, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	summary, err := importer.New(db, logger).Run(context.Background(), *dir)
	if err != nil {
		log.Fatalf("import aborted: %v", err)
	}

	fmt.Println("=== Import Summary ===")
	for _, f := range summary.Files {
		if f.Err != nil {
			fmt.Printf("%-16s unreadable: %v\n", f.File, f.Err)
			continue
		}
		fmt.Printf("%-16s created=%d updated=%d skipped=%d\n", f.File, f.Created, f.Updated, len(f.Warnings))
		for _, w := range f.Warnings {
			fmt.Printf("    %s\n", w)
		}
	}
	fmt.Printf("total: created=%d updated=%d skipped=%d\n", summary.Created(), summary.Updated(), summary.Skipped())
}
