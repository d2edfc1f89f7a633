package main

import (
	"context"
	"flag"
	"log"

	"pool-service/pkg/config"
	"pool-service/pkg/database/postgresql"
	"pool-service/seeders"
)

func main() {
	runMigrate := flag.Bool("migrate", false, "run pending schema migrations before seeding")
	runDemo := flag.Bool("demo", false, "insert the demo company, technicians, clients and assignments")
	flag.Parse()

	if !*runMigrate && !*runDemo {
		log.Println("nothing to do, pass -migrate and/or -demo")
		flag.PrintDefaults()
		return
	}

	cfg := config.New()
	pool, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *runMigrate {
		if err := postgresql.RunMigrations(pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		log.Println("migrations applied")
	}

	if *runDemo {
		seeders.SeedDemoData(pool)
	}
}
