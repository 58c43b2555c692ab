package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"userhub.org/internal/migrate"
	"userhub.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	dsn := flag.String("dsn", os.Getenv("USERHUB_PG_DSN"), "PostgreSQL DSN")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or USERHUB_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|status]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	runner := migrate.NewRunner(db, pg.Migrations())

	switch flag.Arg(0) {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		for _, name := range applied {
			fmt.Println("applied", name)
		}
		if len(applied) == 0 {
			fmt.Println("up to date")
		}
	case "down":
		name, err := runner.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		fmt.Println("rolled back", name)
	case "status":
		history, err := runner.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, name := range history {
			fmt.Println(name)
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
}
